// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxNameLen = 100
	// TimestampLayout names capture files.
	TimestampLayout = "2006-01-02_15-04-05"
	// FallbackName is used when a title cleans down to nothing.
	FallbackName = "stream"
)

var invalidNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_", " ", "_",
)

// CleanFilename turns a stream title into a portable directory or file name: accents
// are folded, characters reserved on common filesystems and other non-ASCII runes are
// dropped or replaced with "_", and the result is capped at 100 bytes.
func CleanFilename(name string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range invalidNameChars.Replace(folded) {
		if r < 0x20 || r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	out = strings.Trim(out, "_.")
	if len(out) > maxNameLen {
		out = strings.TrimRight(out[:maxNameLen], "_.")
	}
	if out == "" {
		return FallbackName
	}
	return out
}

// TimestampName formats t as a capture file base name.
func TimestampName(t time.Time) string {
	return t.Format(TimestampLayout)
}

// UniqueFilename returns dir/base+ext, or dir/base_N+ext with the smallest N >= 1
// that does not exist yet.
func UniqueFilename(dir, base, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	candidate := filepath.Join(dir, base+ext)
	for n := 1; exists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// CheckWritable verifies a file can be created in dir.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".streamshot-probe-*")
	if err != nil {
		return fmt.Errorf("directory %s not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
