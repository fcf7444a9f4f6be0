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

// Package launcher resolves the slicer binary, applies the computed
// graphics environment and replaces the wrapper process with the slicer.
// Arguments, stdio and the exit status all belong to the slicer once the
// hand-off happens; the wrapper adds nothing and translates nothing.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/gfx"
	"github.com/SlipwayProject/slipway/pkg/helpers/command"
	"github.com/SlipwayProject/slipway/pkg/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// ErrBinaryNotFound means no resolution step produced a slicer binary.
var ErrBinaryNotFound = errors.New("slicer binary not found")

// Launcher wires the pieces of a launch together. Fields are exposed so
// tests can swap in fakes; New fills in the real implementations.
type Launcher struct {
	Cfg        *config.Instance
	Prober     *session.Prober
	Cmd        command.Executor
	Fs         afero.Fs
	Environ    func() []string
	Executable func() (string, error)
	Exec       func(argv0 string, argv []string, envv []string) error
	Stdout     io.Writer
}

// New returns a launcher bound to the real process environment.
func New(cfg *config.Instance) *Launcher {
	return &Launcher{
		Cfg:        cfg,
		Prober:     session.NewProber(),
		Cmd:        &command.RealExecutor{},
		Fs:         afero.NewOsFs(),
		Environ:    os.Environ,
		Executable: os.Executable,
		Exec:       unix.Exec,
		Stdout:     os.Stdout,
	}
}

// Resolve picks the slicer binary. Resolution order: config or SLIPWAY_APP
// override, the bundle-relative libexec directory next to the wrapper,
// then PATH. First hit wins.
func (l *Launcher) Resolve() (string, error) {
	if p := l.Cfg.AppPath(); p != "" {
		log.Debug().Msgf("slicer path from config: %s", p)
		return p, nil
	}

	if exe, err := l.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "libexec", config.SlicerBin)
		if _, err := l.Fs.Stat(candidate); err == nil {
			log.Debug().Msgf("slicer found in bundle: %s", candidate)
			return candidate, nil
		}
	}

	if p, err := l.Cmd.LookPath(config.SlicerBin); err == nil {
		log.Debug().Msgf("slicer found on PATH: %s", p)
		return p, nil
	}

	return "", ErrBinaryNotFound
}

// Run computes the environment plan, prints its diagnostics to stdout and
// replaces the current process with the slicer. On success it never
// returns. Arguments pass through verbatim: same order, nothing injected.
func (l *Launcher) Run(ctx context.Context, args []string) error {
	mode := l.Cfg.Renderer()

	var sc session.Context
	if mode == config.RendererAuto {
		sc = l.Prober.Detect(ctx)
	}
	plan := gfx.ComputeMode(mode, sc)

	if !l.Cfg.NoBanner() {
		for _, note := range plan.Notes {
			_, _ = fmt.Fprintf(l.Stdout, "%s: %s\n", config.AppName, note)
		}
	}
	for _, v := range plan.Vars {
		log.Debug().Msgf("setting %s=%s", v.Name, v.Value)
	}

	bin, err := l.Resolve()
	if err != nil {
		return err
	}

	env := plan.Environ(l.Environ())
	env = extraEnvPlan(l.Cfg.ExtraEnv()).Environ(env)

	argv := append([]string{bin}, args...)
	log.Info().Msgf("handing off to %s", bin)
	if err := l.Exec(bin, argv, env); err != nil {
		return fmt.Errorf("failed to exec %s: %w", bin, err)
	}
	return nil
}

// extraEnvPlan turns the user's extra_env config map into a plan so it
// merges with the same replace-don't-duplicate semantics, applied after
// the computed variables. Keys are sorted for a stable environment.
func extraEnvPlan(extra map[string]string) gfx.Plan {
	if len(extra) == 0 {
		return gfx.Plan{}
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]gfx.Var, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, gfx.Var{Name: k, Value: extra[k]})
	}
	return gfx.Plan{Vars: vars}
}

// ExitCode maps a launch failure to the shell convention the wrapper's
// caller expects: 127 when the binary is missing, 126 when it exists but
// cannot be executed, 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrBinaryNotFound), errors.Is(err, unix.ENOENT):
		return 127
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.ENOEXEC), errors.Is(err, unix.EISDIR):
		return 126
	default:
		return 1
	}
}
