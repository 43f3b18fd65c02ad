// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/streamshot/internal/platform/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, code int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestIPAPICo(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{"latitude":53.5511,"longitude":9.9937,"city":"Hamburg","country_name":"Germany","timezone":"Europe/Berlin"}`)
	loc, err := IPAPICo{URL: srv.URL, Client: httpx.NewClient(time.Second)}.Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 53.5511, loc.Latitude, 1e-9)
	assert.InDelta(t, 9.9937, loc.Longitude, 1e-9)
	assert.Equal(t, "Hamburg, Germany", loc.Name)
	assert.Equal(t, "Europe/Berlin", loc.Timezone)
}

func TestIPAPICo_ErrorBody(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{"error":true,"reason":"RateLimited"}`)
	_, err := IPAPICo{URL: srv.URL, Client: httpx.NewClient(time.Second)}.Locate(context.Background())
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestIPAPICom_UnknownZoneFallsBack(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{"status":"success","lat":-33.87,"lon":151.21,"city":"Sydney","country":"Australia","timezone":"Mars/Olympus"}`)
	loc, err := IPAPICom{URL: srv.URL, Client: httpx.NewClient(time.Second)}.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sydney, Australia", loc.Name)
	assert.Empty(t, loc.Timezone)
}

func TestLocator_FallsBackInOrder(t *testing.T) {
	client := httpx.NewClient(time.Second)
	first, firstHits := jsonServer(t, http.StatusTooManyRequests, `{"error":true}`)
	second, secondHits := jsonServer(t, http.StatusOK, `{"status":"success","lat":51.5,"lon":-0.12,"city":"London","country":"United Kingdom","timezone":"Europe/London"}`)

	l := NewLocator(IPAPICo{URL: first.URL, Client: client}, IPAPICom{URL: second.URL, Client: client})
	loc, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "London, United Kingdom", loc.Name)
	assert.Equal(t, int32(1), firstHits.Load())
	assert.Equal(t, int32(1), secondHits.Load())
}

func TestLocator_FirstSuccessWins(t *testing.T) {
	client := httpx.NewClient(time.Second)
	first, _ := jsonServer(t, http.StatusOK, `{"latitude":48.85,"longitude":2.35,"city":"Paris"}`)
	second, secondHits := jsonServer(t, http.StatusOK, `{"status":"success","lat":1,"lon":1}`)

	loc, err := NewLocator(IPAPICo{URL: first.URL, Client: client}, IPAPICom{URL: second.URL, Client: client}).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.Name)
	assert.Zero(t, secondHits.Load())
}

func TestLocator_AllFail(t *testing.T) {
	client := httpx.NewClient(time.Second)
	first, _ := jsonServer(t, http.StatusOK, `{"latitude":0,"longitude":0}`)
	second, _ := jsonServer(t, http.StatusOK, `{"status":"fail","message":"reserved range"}`)

	_, err := NewLocator(IPAPICo{URL: first.URL, Client: client}, IPAPICom{URL: second.URL, Client: client}).Locate(context.Background())
	require.ErrorIs(t, err, ErrNoLocation)
	require.ErrorIs(t, err, ErrBadResponse)
	assert.Contains(t, err.Error(), "reserved range")
}
