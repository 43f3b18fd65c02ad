// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// fileVersion is written into every settings file.
const fileVersion = 1

// fileSettings is the on-disk layout.
type fileSettings struct {
	Version         int `yaml:"version"`
	domain.Settings `yaml:",inline"`
}

// File persists settings as YAML.
type File struct {
	path string
}

// NewFile returns a persister for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the settings file location.
func (f *File) Path() string { return f.path }

// Load reads the settings file. A missing file yields (defaults, false, nil).
func (f *File) Load() (domain.Settings, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.DefaultSettings(), false, nil
	}
	if err != nil {
		return domain.Settings{}, false, fmt.Errorf("read settings: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return domain.Settings{}, true, err
	}
	return s, true, nil
}

func decode(data []byte) (domain.Settings, error) {
	fs := fileSettings{Settings: domain.DefaultSettings()}
	if len(bytes.TrimSpace(data)) == 0 {
		return fs.Settings, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fs); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return domain.Settings{}, fmt.Errorf("%w: %v", ErrUnknownSettingsField, err)
		}
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return fs.Settings, nil
}

// Save writes settings atomically (temp file, fsync, rename).
func (f *File) Save(s domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("mkdir settings dir: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fileSettings{Version: fileVersion, Settings: s}); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}

	if err := renameio.WriteFile(f.path, buf.Bytes(), 0o640); err != nil {
		return fmt.Errorf("atomically replace settings file: %w", err)
	}
	return nil
}
