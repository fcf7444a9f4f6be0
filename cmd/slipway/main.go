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

//go:build linux

// The slipway wrapper is what the desktop entry and the installed bin
// symlink actually execute. It prepares the graphics environment and
// replaces itself with the slicer.
//
// Arguments are forwarded verbatim. There is deliberately no flag
// parsing here: anything on the command line belongs to the slicer, a
// file manager passing a model path must never collide with wrapper
// options.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SlipwayProject/slipway/pkg/cli"
	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/launcher"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := cli.SetupLauncher()
	l := launcher.New(cfg)

	// Run only returns on failure, success replaces this process
	if err := l.Run(context.Background(), os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("launch failed")
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		os.Exit(launcher.ExitCode(err))
	}
}
