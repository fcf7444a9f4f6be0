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

// Package session probes the graphics session the slicer is about to be
// launched into: display server kind, NVIDIA driver presence and zink
// driver availability. Probes are boolean and failure-tolerant - a missing
// tool or file is a negative signal, never an error.
package session

import (
	"context"
	"os"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// WaylandDisplayEnv decides the display server kind. Presence test
	// only: any non-empty value counts as a Wayland session.
	WaylandDisplayEnv = "WAYLAND_DISPLAY"

	// NvidiaTool is the diagnostic tool whose presence and exit status
	// stand in for "proprietary NVIDIA driver loaded".
	NvidiaTool = "nvidia-smi"
)

// ZinkDriverCandidates are the fixed locations the Mesa zink driver is
// probed at, in order: the Debian/Ubuntu multiarch path first, then the
// generic one. The first hit wins.
var ZinkDriverCandidates = []string{
	"/usr/lib/x86_64-linux-gnu/dri/zink_dri.so",
	"/usr/lib/dri/zink_dri.so",
}

// Context is the session state read once at launch. It never changes
// after Detect returns.
type Context struct {
	ZinkDriver string
	Wayland    bool
	NvidiaGPU  bool
}

// Prober carries the probe surface so detection stays testable without a
// real session. Zero fields fall back to the real environment.
type Prober struct {
	Getenv func(string) string
	Cmd    command.Executor
	Fs     afero.Fs
}

// NewProber returns a Prober wired to the real process environment,
// command execution and filesystem.
func NewProber() *Prober {
	return &Prober{
		Getenv: os.Getenv,
		Cmd:    &command.RealExecutor{},
		Fs:     afero.NewOsFs(),
	}
}

// Detect gathers the session facts the launcher branches on. Probes run
// in dependency order and short-circuit: outside Wayland no further
// probes run, and the zink lookup only happens on NVIDIA systems.
// Detection is read-only and idempotent.
func (p *Prober) Detect(ctx context.Context) Context {
	sc := Context{}

	sc.Wayland = p.Getenv(WaylandDisplayEnv) != ""
	if !sc.Wayland {
		log.Debug().Msg("no wayland display, skipping gpu probes")
		return sc
	}

	sc.NvidiaGPU = p.probeNvidia(ctx)
	if !sc.NvidiaGPU {
		return sc
	}

	sc.ZinkDriver = p.probeZink()
	return sc
}

// probeNvidia reports whether the NVIDIA diagnostic tool is on PATH and
// runs successfully. Either failure means the proprietary driver is not
// usable here.
func (p *Prober) probeNvidia(ctx context.Context) bool {
	if _, err := p.Cmd.LookPath(NvidiaTool); err != nil {
		log.Debug().Msgf("%s not on PATH: %v", NvidiaTool, err)
		return false
	}

	runCtx, cancel := context.WithTimeout(ctx, config.ProbeTimeout)
	defer cancel()

	if err := p.Cmd.Run(runCtx, NvidiaTool); err != nil {
		log.Debug().Msgf("%s did not run cleanly: %v", NvidiaTool, err)
		return false
	}
	return true
}

// probeZink returns the first existing zink driver candidate, or empty.
func (p *Prober) probeZink() string {
	for _, candidate := range ZinkDriverCandidates {
		if _, err := p.Fs.Stat(candidate); err == nil {
			log.Debug().Msgf("zink driver found: %s", candidate)
			return candidate
		}
	}
	log.Debug().Msg("no zink driver at known locations")
	return ""
}
