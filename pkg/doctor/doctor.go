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

// Package doctor inspects everything a launch depends on and reports what
// the wrapper would do in the current session. All checks are read-only.
// A warning describes a session where the launcher legitimately does
// nothing; a failure means launching cannot work at all.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/gfx"
	"github.com/SlipwayProject/slipway/pkg/launcher"
	"github.com/SlipwayProject/slipway/pkg/session"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Status classifies a check outcome.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is one check outcome, ready for printing or JSON output.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Check pairs a check name with the probe that produces its result.
type Check struct {
	Run  func(ctx context.Context) Result
	Name string
}

// DiagnosticTools are the graphics introspection tools expected in a
// development shell.
var DiagnosticTools = []string{"vulkaninfo", "eglinfo", "glxinfo"}

// Doctor carries the probe surface the checks run against. Fields are
// exposed so tests can swap in fakes; New fills in the real
// implementations.
type Doctor struct {
	Cfg         *config.Instance
	Prober      *session.Prober
	Launcher    *launcher.Launcher
	SessionType func(ctx context.Context) (string, error)
	HostInfo    func(ctx context.Context) (*host.InfoStat, error)
	Memory      func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// New returns a doctor bound to the real session, filesystem and system
// bus.
func New(cfg *config.Instance) *Doctor {
	return &Doctor{
		Cfg:         cfg,
		Prober:      session.NewProber(),
		Launcher:    launcher.New(cfg),
		SessionType: logindSessionType,
		HostInfo:    host.InfoWithContext,
		Memory:      mem.VirtualMemoryWithContext,
	}
}

// Checks returns the full check list in report order.
func (d *Doctor) Checks() []Check {
	mk := func(name string, run func(context.Context) (Status, string)) Check {
		return Check{
			Name: name,
			Run: func(ctx context.Context) Result {
				status, detail := run(ctx)
				return Result{Name: name, Status: status, Detail: detail}
			},
		}
	}
	return []Check{
		mk("wayland display", d.checkWayland),
		mk("logind session", d.checkLogind),
		mk("nvidia driver", d.checkNvidia),
		mk("zink driver", d.checkZink),
		mk("egl vendor file", d.checkEGLVendor),
		mk("diagnostic tools", d.checkTools),
		mk("host", d.checkHost),
		mk("slicer binary", d.checkBinary),
		mk("config file", d.checkConfig),
		mk("environment plan", d.checkPlan),
	}
}

// Run executes every check in order and collects the results.
func (d *Doctor) Run(ctx context.Context) []Result {
	checks := d.Checks()
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		r := c.Run(ctx)
		log.Debug().Msgf("check %s: %s (%s)", r.Name, r.Status, r.Detail)
		results = append(results, r)
	}
	return results
}

func (d *Doctor) checkWayland(_ context.Context) (Status, string) {
	display := d.Prober.Getenv(session.WaylandDisplayEnv)
	if display == "" {
		return StatusWarn, session.WaylandDisplayEnv + " unset, launcher leaves the environment alone"
	}
	return StatusPass, session.WaylandDisplayEnv + "=" + display
}

// checkLogind corroborates the display server kind against logind. The
// launch decision itself never asks logind, so a mismatch here points at
// a broken session setup rather than a launcher problem.
func (d *Doctor) checkLogind(ctx context.Context) (Status, string) {
	sessionType, err := d.SessionType(ctx)
	if err != nil {
		return StatusSkip, fmt.Sprintf("logind unavailable: %v", err)
	}

	wayland := d.Prober.Getenv(session.WaylandDisplayEnv) != ""
	switch {
	case sessionType == "wayland" && !wayland:
		return StatusWarn, "logind reports a wayland session but " +
			session.WaylandDisplayEnv + " is unset"
	case sessionType != "wayland" && wayland:
		return StatusWarn, fmt.Sprintf("logind reports a %s session but %s is set",
			sessionType, session.WaylandDisplayEnv)
	default:
		return StatusPass, fmt.Sprintf("logind agrees: %s session", sessionType)
	}
}

func (d *Doctor) checkNvidia(ctx context.Context) (Status, string) {
	if _, err := d.Prober.Cmd.LookPath(session.NvidiaTool); err != nil {
		return StatusSkip, session.NvidiaTool + " not on PATH (no proprietary NVIDIA driver)"
	}

	runCtx, cancel := context.WithTimeout(ctx, config.ProbeTimeout)
	defer cancel()

	if err := d.Prober.Cmd.Run(runCtx, session.NvidiaTool); err != nil {
		return StatusWarn, fmt.Sprintf("%s present but not responding: %v", session.NvidiaTool, err)
	}
	return StatusPass, session.NvidiaTool + " responding"
}

func (d *Doctor) checkZink(_ context.Context) (Status, string) {
	for _, candidate := range session.ZinkDriverCandidates {
		if _, err := d.Prober.Fs.Stat(candidate); err == nil {
			return StatusPass, candidate
		}
	}
	return StatusWarn, "no zink driver at known locations, zink launches fall back to software rendering"
}

func (d *Doctor) checkEGLVendor(_ context.Context) (Status, string) {
	if _, err := d.Prober.Fs.Stat(gfx.EGLVendorFile); err != nil {
		return StatusWarn, "missing " + gfx.EGLVendorFile + ", zink needs the Mesa EGL vendor entry"
	}
	return StatusPass, gfx.EGLVendorFile
}

func (d *Doctor) checkTools(_ context.Context) (Status, string) {
	var missing []string
	for _, tool := range DiagnosticTools {
		if _, err := d.Prober.Cmd.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return StatusWarn, "missing: " + strings.Join(missing, ", ")
	}
	return StatusPass, strings.Join(DiagnosticTools, ", ") + " on PATH"
}

func (d *Doctor) checkHost(ctx context.Context) (Status, string) {
	info, err := d.HostInfo(ctx)
	if err != nil {
		return StatusWarn, fmt.Sprintf("host info unavailable: %v", err)
	}

	detail := fmt.Sprintf("%s %s, kernel %s", info.Platform, info.PlatformVersion, info.KernelVersion)
	if vm, memErr := d.Memory(ctx); memErr == nil {
		detail += fmt.Sprintf(", %.1f GiB memory", float64(vm.Total)/(1<<30))
	}
	return StatusPass, detail
}

func (d *Doctor) checkBinary(_ context.Context) (Status, string) {
	bin, err := d.Launcher.Resolve()
	if errors.Is(err, launcher.ErrBinaryNotFound) {
		return StatusFail, config.SlicerBin +
			" not found, set launcher.app_path in the config or install the bundle"
	}
	if err != nil {
		return StatusFail, fmt.Sprintf("binary resolution failed: %v", err)
	}
	return StatusPass, bin
}

func (d *Doctor) checkConfig(_ context.Context) (Status, string) {
	path := d.Cfg.Path()
	if _, err := d.Prober.Fs.Stat(path); err != nil {
		return StatusWarn, fmt.Sprintf("no config file at %s, defaults in effect", path)
	}

	detail := path
	if mode := d.Cfg.Renderer(); mode != config.RendererAuto {
		detail += fmt.Sprintf(" (renderer pinned to %s)", mode)
	}
	return StatusPass, detail
}

// checkPlan echoes the environment plan a launch would apply right now,
// following the launcher exactly: detection only runs in auto mode.
func (d *Doctor) checkPlan(ctx context.Context) (Status, string) {
	mode := d.Cfg.Renderer()

	var sc session.Context
	if mode == config.RendererAuto {
		sc = d.Prober.Detect(ctx)
	}

	plan := gfx.ComputeMode(mode, sc)
	if len(plan.Vars) == 0 {
		return StatusPass, fmt.Sprintf("renderer %s, environment untouched", plan.Renderer)
	}
	return StatusPass, fmt.Sprintf("renderer %s, %d variables", plan.Renderer, len(plan.Vars))
}
