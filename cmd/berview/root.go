// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"codello.dev/berview/ber"
	"codello.dev/berview/config"
	"codello.dev/berview/navigator"
	"codello.dev/berview/render"
	"codello.dev/berview/schema"
)

// app holds the environment of a single invocation.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	newScreen func() (tcell.Screen, error)

	configPath string
	flags      config.Config
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "berview [flags] SCHEMA... INPUT TYPE",
		Short: "Decode BER encoded data using an ASN.1 schema",
		Long: `berview decodes a file of BER encoded data values using type definitions
from one or more schema files. Schema files use a subset of the ASN.1
notation, or YAML if their name ends in .yaml or .yml.`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			return a.run(cfg, args[:len(args)-2], args[len(args)-2], args[len(args)-1])
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	def := config.Default()
	f := cmd.Flags()
	f.StringVar(&a.configPath, "config", "", "YAML configuration file")
	f.BoolVarP(&a.flags.Interactive, "interactive", "i", def.Interactive, "browse the decoded data interactively")
	f.StringVarP(&a.flags.Format, "format", "f", def.Format, "batch output format: text, json, yaml or cbor")
	f.StringVar(&a.flags.LogLevel, "log-level", def.LogLevel, "log level: debug, info, warn or error")
	f.IntVar(&a.flags.MaxDepth, "max-depth", def.MaxDepth, "maximum nesting depth, 0 for no limit")
	f.StringVar(&a.flags.Embedded.Field, "embedded-field", def.Embedded.Field, "name of string fields holding embedded data values, empty to disable")
	f.StringVar(&a.flags.Embedded.Type, "embedded-type", def.Embedded.Type, "type of embedded data values")
	f.BoolVar(&a.flags.NoColor, "no-color", def.NoColor, "disable colors in interactive mode")
	f.BoolVar(&a.flags.Verify, "verify", def.Verify, "check that every decoded value survives re-encoding")
	return cmd
}

// config merges the configuration file and the flags set on the command
// line.
func (a *app) config(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return nil, err
		}
	}
	f := cmd.Flags()
	if f.Changed("interactive") {
		cfg.Interactive = a.flags.Interactive
	}
	if f.Changed("format") {
		cfg.Format = a.flags.Format
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if f.Changed("max-depth") {
		cfg.MaxDepth = a.flags.MaxDepth
	}
	if f.Changed("embedded-field") {
		cfg.Embedded.Field = a.flags.Embedded.Field
	}
	if f.Changed("embedded-type") {
		cfg.Embedded.Type = a.flags.Embedded.Type
	}
	if f.Changed("no-color") {
		cfg.NoColor = a.flags.NoColor
	}
	if f.Changed("verify") {
		cfg.Verify = a.flags.Verify
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (a *app) run(cfg *config.Config, schemaFiles []string, input, typeName string) error {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	reg, err := schema.LoadFiles(logger, schemaFiles...)
	if err != nil {
		return err
	}
	if _, ok := reg.Lookup(typeName); !ok {
		return unknownType(reg, typeName)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Debug("read input", slog.String("component", "cli"),
		slog.String("file", input), slog.Int("size", len(data)))

	loc, _ := cfg.Location()
	formatter := &render.Formatter{
		Future:   cfg.Timestamp.Future,
		Past:     cfg.Timestamp.Past,
		Location: loc,
	}
	newDecoder := func(data []byte) *ber.Decoder {
		d := ber.NewDecoder(data, reg)
		d.MaxDepth = cfg.MaxDepth
		d.EmbeddedField = cfg.Embedded.Field
		d.EmbeddedType = cfg.Embedded.Type
		d.Logger = logger
		return d
	}

	if cfg.Interactive {
		return a.browse(cfg, newDecoder(data), typeName, formatter, logger)
	}

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	p, err := render.NewPrinter(a.stdout, format, formatter)
	if err != nil {
		return err
	}
	d := newDecoder(data)
	for {
		offset := d.InputOffset()
		obj, err := d.Decode(typeName)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			_ = p.Close()
			return err
		}
		if cfg.Verify {
			if err = verify(obj, newDecoder, typeName, offset); err != nil {
				_ = p.Close()
				return err
			}
		}
		if err = p.Print(obj); err != nil {
			return err
		}
	}
	return p.Close()
}

// unknownType reports that name is not defined in reg and suggests the
// closest defined name, if any.
func unknownType(reg *schema.Registry, name string) error {
	err := fmt.Errorf("found no type %q in %d schema definitions", name, reg.Len())
	var names []string
	for def := range reg.All() {
		names = append(names, def.Name)
	}
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) == 0 {
		return err
	}
	sort.Stable(ranks)
	return fmt.Errorf("%w, did you mean %q?", err, ranks[0].Target)
}

// verify re-encodes obj and checks that decoding the result yields an equal
// tree.
func verify(obj *ber.Object, newDecoder func([]byte) *ber.Decoder, typeName string, offset int64) error {
	enc, err := ber.Marshal(obj)
	if err != nil {
		return fmt.Errorf("verify value at offset %d: %w", offset, err)
	}
	d := newDecoder(enc)
	again, err := d.Decode(typeName)
	if err != nil {
		return fmt.Errorf("verify value at offset %d: %w", offset, err)
	}
	if d.More() || !obj.Equal(again) {
		return fmt.Errorf("verify value at offset %d: re-encoded value differs", offset)
	}
	return nil
}

// browse decodes the complete input and starts the interactive browser.
// Decoding errors are reported before the screen is touched.
func (a *app) browse(cfg *config.Config, d *ber.Decoder, typeName string, f *render.Formatter, logger *slog.Logger) error {
	var roots []*ber.Object
	for {
		obj, err := d.Decode(typeName)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
		roots = append(roots, obj)
	}
	if len(roots) == 0 {
		return errors.New("input is empty")
	}

	screen, err := a.newScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	b := navigator.NewBrowser(screen, roots...)
	b.Formatter = f
	b.Logger = logger
	if !cfg.UseColor() {
		b.Palette = navigator.MonochromePalette()
	}
	return b.Run()
}
