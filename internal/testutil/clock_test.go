// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFakeClock(start)

	a := fc.NewTimer(10 * time.Second)
	b := fc.NewTimer(20 * time.Second)
	require.True(t, fc.BlockUntil(2, time.Second))

	fc.Advance(10 * time.Second)
	select {
	case got := <-a.C():
		assert.Equal(t, start.Add(10*time.Second), got)
	default:
		t.Fatal("timer a should have fired")
	}
	select {
	case <-b.C():
		t.Fatal("timer b fired early")
	default:
	}

	assert.True(t, b.Stop())
	assert.False(t, b.Stop())
	assert.Equal(t, 0, fc.PendingTimers())
	assert.Equal(t, start.Add(10*time.Second), fc.Now())

	immediate := fc.NewTimer(0)
	select {
	case <-immediate.C():
	default:
		t.Fatal("zero timer should fire at once")
	}
}
