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

// The slipway-doctor tool inspects the graphics stack, the installed
// bundle and the config, and reports what a launch would do. It ships
// with the development shell for debugging renderer fallbacks without
// starting the slicer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SlipwayProject/slipway/pkg/cli"
	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/doctor"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

func main() {
	flags := cli.SetupFlags()

	jsonOut := flag.Bool(
		"json",
		false,
		"write the report as JSON",
	)
	watchMode := flag.Bool(
		"watch",
		false,
		"re-run checks when drivers or config change",
	)

	flags.Pre()

	cfg := cli.Setup(config.BaseDefaults)
	flags.Post()

	ctx := context.Background()
	d := doctor.New(cfg)

	emit := func() bool {
		results := d.Run(ctx)
		if *jsonOut {
			if err := doctor.NewReport(results).WriteJSON(os.Stdout); err != nil {
				log.Error().Err(err).Msg("report encoding failed")
			}
		} else {
			doctor.PrintReport(os.Stdout, results)
		}
		return doctor.Failed(results)
	}

	failed := emit()

	if *watchMode {
		w, err := doctor.NewWatcher(clockwork.NewRealClock(), func() { _ = emit() })
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer w.Stop()

		if w.Add(doctor.WatchPaths(cfg)...) == 0 {
			log.Warn().Msg("nothing watchable exists, watch mode is idle")
		}
		w.Start()

		sigs := make(chan os.Signal, 1)
		defer close(sigs)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		return
	}

	if failed {
		os.Exit(1)
	}
}
