// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config reads the optional lc3sim TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/lassandro/lc3sim/pkg/machine"
)

const DefaultMaxSteps = 100000

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrInvalidConfig = errors.New("Invalid configuration")

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Display struct {
	Color string `toml:"color"`
	Dump  bool   `toml:"dump"`

	// BCP 47 tag for messages and numbers; empty uses the environment.
	Locale string `toml:"locale"`
}

type File struct {
	Machine machine.Config `toml:"machine"`
	Log     Log            `toml:"log"`
	Display Display        `toml:"display"`
}

func Default() File {
	return File{
		Machine: machine.Config{MaxSteps: DefaultMaxSteps},
		Log:     Log{Level: "info", Format: FormatText},
		Display: Display{Color: ColorAuto},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (File, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)

	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, check(meta, &cfg)
}

// Decode reads a configuration from r over the defaults.
func Decode(r io.Reader) (File, error) {
	cfg := Default()

	meta, err := toml.NewDecoder(r).Decode(&cfg)

	if err != nil {
		return cfg, err
	}

	return cfg, check(meta, &cfg)
}

func check(meta toml.MetaData, cfg *File) error {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))

		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return fmt.Errorf(
			"%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "),
		)
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch cfg.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf(
			"%w: log format %q", ErrInvalidConfig, cfg.Log.Format,
		)
	}

	switch cfg.Display.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf(
			"%w: display color %q", ErrInvalidConfig, cfg.Display.Color,
		)
	}

	if cfg.Display.Locale != "" {
		if _, err := language.Parse(cfg.Display.Locale); err != nil {
			return fmt.Errorf("%w: locale: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Apply sets the level and formatter of logger.
func (l Log) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger.SetLevel(level)

	switch l.Format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	return nil
}

// UseColor resolves the colour setting, deferring to terminal for "auto".
func (d Display) UseColor(terminal bool) bool {
	switch d.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	return terminal
}
