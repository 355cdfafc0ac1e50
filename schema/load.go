// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Load parses src and adds its definitions to r. Sources whose file name ends
// in .yaml or .yml are parsed with [ParseYAML], all others with [Parse].
func (r *Registry) Load(file string, src []byte) error {
	var (
		defs []*TypeDef
		err  error
	)
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		defs, err = ParseYAML(file, src)
	default:
		defs, err = Parse(file, src)
	}
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err = r.Define(def); err != nil {
			return err
		}
	}
	return nil
}

// LoadFiles reads the schema files in order, concatenates their definitions
// into a new registry and resolves it. logger may be nil.
func LoadFiles(logger *slog.Logger, files ...string) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("component", "schema"))

	r := NewRegistry()
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		before := r.Len()
		if err = r.Load(file, src); err != nil {
			return nil, err
		}
		logger.Debug("loaded schema file",
			slog.String("file", file),
			slog.Int("definitions", r.Len()-before))
	}
	if err := r.Resolve(); err != nil {
		return nil, err
	}
	logger.Debug("resolved schema", slog.Int("definitions", r.Len()))
	return r, nil
}
