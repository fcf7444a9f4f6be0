// Slipway
// Copyright (c) 2026 The Slipway Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Slipway.
//
// Slipway is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Slipway is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Slipway.  If not, see <http://www.gnu.org/licenses/>.

// Package cli provides the shared startup sequence for the command line
// tools: directories, logging, config and error reporting. The launcher
// uses the tolerant variant, where nothing may block the exec.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/SlipwayProject/slipway/internal/telemetry"
	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Version *bool
	Debug   *bool
}

// SetupFlags defines the flags every tool shares. Register tool-specific
// flags before calling Pre.
func SetupFlags() *Flags {
	return &Flags{
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: flag.Bool(
			"debug",
			false,
			"force debug logging",
		),
	}
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup.
func (f *Flags) Pre() {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("Slipway v%s\n", config.AppVersion)
		os.Exit(0)
	}
}

// Post actions the remaining common flags once setup has run.
func (f *Flags) Post() {
	if *f.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// Setup initializes directories, logging, the user config and error
// reporting for the interactive tools. Returns the loaded config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaults config.Values, writers ...io.Writer) *config.Instance {
	// Ensure directories exist before logging initialization
	if err := helpers.EnsureDirectories(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	if err := helpers.InitLogging(writers...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaults)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Initialize error reporting (opt-in)
	if err := telemetry.Init(cfg.ErrorReporting(), cfg.DeviceID(), config.AppVersion); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}

// SetupLauncher prepares the environment for the exec path. Unlike Setup
// it never exits and never reports errors upstream: an unreadable config
// falls back to defaults and logging failures are swallowed, so a broken
// environment can't stop the slicer from starting.
func SetupLauncher() *config.Instance {
	if err := helpers.InitLogging(); err != nil {
		log.Logger = zerolog.Nop()
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), config.BaseDefaults)
	if err != nil {
		log.Warn().Err(err).Msg("config unreadable, launching with defaults")
		return config.NewDefaults()
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg
}
