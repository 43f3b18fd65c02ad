// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Times Square Live", "Times_Square_Live"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"Café  Zürich", "Cafe_Zurich"},
		{"  __..hidden..__ ", "hidden"},
		{"日本の空", FallbackName},
		{"", FallbackName},
		{"..", FallbackName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilename(tt.in))
		})
	}
}

func TestCleanFilenameLength(t *testing.T) {
	got := CleanFilename(strings.Repeat("x", 300))
	assert.Len(t, got, maxNameLen)
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	base := TimestampName(time.Date(2024, 6, 21, 5, 4, 3, 0, time.UTC))
	assert.Equal(t, "2024-06-21_05-04-03", base)

	first := UniqueFilename(dir, base, "jpg")
	assert.Equal(t, filepath.Join(dir, base+".jpg"), first)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0o600))

	second := UniqueFilename(dir, base, ".jpg")
	assert.Equal(t, filepath.Join(dir, base+"_1.jpg"), second)
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o600))

	assert.Equal(t, filepath.Join(dir, base+"_2.jpg"), UniqueFilename(dir, base, ".jpg"))
}

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()

	p, err := ConfineRelPath(root, "Times_Square")
	require.NoError(t, err)
	realRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, filepath.Join(realRoot, "Times_Square"), p)

	for _, bad := range []string{"../x", "..", "/etc", `a\b`} {
		_, err := ConfineRelPath(root, bad)
		assert.ErrorIs(t, err, ErrEscapesRoot, bad)
	}

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	_, err = ConfineRelPath(root, "link")
	assert.ErrorIs(t, err, ErrEscapesRoot)
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	assert.ErrorIs(t, NonEmptyFile(empty), ErrEmptyFile)

	full := filepath.Join(dir, "full.jpg")
	require.NoError(t, os.WriteFile(full, []byte{0xff, 0xd8}, 0o600))
	assert.NoError(t, NonEmptyFile(full))

	assert.Error(t, NonEmptyFile(filepath.Join(dir, "missing.jpg")))
	assert.Error(t, NonEmptyFile(dir))
}

func TestEnsureDirAndWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.NoError(t, CheckWritable(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
