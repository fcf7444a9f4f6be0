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

// Package gfx turns a probed session into the environment variable plan
// the slicer is launched with. The decision logic is a flat rule table so
// the whole detection matrix stays enumerable in tests.
package gfx

import (
	"strings"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/session"
)

// Environment variables the launcher may write. No plan ever names a
// variable outside this set.
const (
	EnvGLXVendor    = "__GLX_VENDOR_LIBRARY_NAME"
	EnvEGLVendor    = "__EGL_VENDOR_LIBRARY_FILENAMES"
	EnvMesaLoader   = "MESA_LOADER_DRIVER_OVERRIDE"
	EnvGallium      = "GALLIUM_DRIVER"
	EnvWebkitDMABuf = "WEBKIT_DISABLE_DMABUF_RENDERER"
	EnvGLVblank     = "__GL_SYNC_TO_VBLANK"
	EnvGLThreaded   = "__GL_THREADED_OPTIMIZATIONS"
)

// EGLVendorFile is the glvnd vendor descriptor that points EGL at Mesa.
const EGLVendorFile = "/usr/share/glvnd/egl_vendor.d/50_mesa.json"

// Renderer outcome labels.
const (
	RendererZink     = "zink"
	RendererSoftware = "software"
	RendererNone     = "none"
)

// Var is a single environment assignment.
type Var struct {
	Name  string
	Value string
}

// Plan is the computed launch environment: the renderer outcome, the
// ordered variable assignments, and human-readable notes the wrapper
// prints to stdout before handing off.
type Plan struct {
	Renderer string
	Vars     []Var
	Notes    []string
}

// rule is one row of the decision table. Rows are evaluated in order and
// the first match wins; the last row matches everything.
type rule struct {
	match    func(session.Context) bool
	vars     func(session.Context) []Var
	notes    func(session.Context) []string
	renderer string
}

// commonVars is the workaround block applied to every Wayland+NVIDIA
// launch regardless of zink availability. It stays scoped to the NVIDIA
// branch on purpose: the DMA-BUF issue only shows with that driver stack.
func commonVars() []Var {
	return []Var{
		{Name: EnvWebkitDMABuf, Value: "1"},
		{Name: EnvGLVblank, Value: "0"},
		{Name: EnvGLThreaded, Value: "1"},
	}
}

var rules = []rule{
	{
		renderer: RendererZink,
		match: func(sc session.Context) bool {
			return sc.Wayland && sc.NvidiaGPU && sc.ZinkDriver != ""
		},
		vars: func(session.Context) []Var {
			return append([]Var{
				{Name: EnvGLXVendor, Value: "mesa"},
				{Name: EnvEGLVendor, Value: EGLVendorFile},
				{Name: EnvMesaLoader, Value: "zink"},
				{Name: EnvGallium, Value: "zink"},
			}, commonVars()...)
		},
		notes: func(sc session.Context) []string {
			return []string{
				"Wayland session with NVIDIA driver detected",
				"zink driver found at " + sc.ZinkDriver + ", routing OpenGL through zink",
				"applying WebKit DMA-BUF and GL scheduling workarounds",
			}
		},
	},
	{
		renderer: RendererSoftware,
		match: func(sc session.Context) bool {
			return sc.Wayland && sc.NvidiaGPU
		},
		vars: func(session.Context) []Var {
			return append([]Var{
				{Name: EnvEGLVendor, Value: EGLVendorFile},
			}, commonVars()...)
		},
		notes: func(session.Context) []string {
			return []string{
				"Wayland session with NVIDIA driver detected",
				"no zink driver found, falling back to Mesa EGL software rendering",
				"applying WebKit DMA-BUF and GL scheduling workarounds",
			}
		},
	},
	{
		renderer: RendererNone,
		match: func(session.Context) bool {
			return true
		},
		vars: func(session.Context) []Var {
			return nil
		},
		notes: func(sc session.Context) []string {
			if sc.Wayland {
				return []string{"Wayland session without NVIDIA driver, environment left untouched"}
			}
			return []string{"no Wayland session detected, environment left untouched"}
		},
	},
}

// Compute derives the launch plan for a session from the rule table.
// Deterministic: equal contexts always produce equal plans.
func Compute(sc session.Context) Plan {
	for _, r := range rules {
		if r.match(sc) {
			return Plan{
				Renderer: r.renderer,
				Vars:     r.vars(sc),
				Notes:    r.notes(sc),
			}
		}
	}
	// The table's last row matches everything
	panic("gfx: no rule matched")
}

// ComputeMode applies a configured renderer mode. Auto runs the detection
// rules, the other modes pin a table row and skip detection entirely.
func ComputeMode(mode string, sc session.Context) Plan {
	switch mode {
	case config.RendererZink:
		return Plan{
			Renderer: RendererZink,
			Vars:     rules[0].vars(sc),
			Notes:    []string{"renderer forced to zink by config"},
		}
	case config.RendererSoftware:
		return Plan{
			Renderer: RendererSoftware,
			Vars:     rules[1].vars(sc),
			Notes:    []string{"renderer forced to software fallback by config"},
		}
	case config.RendererOff:
		return Plan{
			Renderer: RendererNone,
			Notes:    []string{"renderer detection disabled by config, environment left untouched"},
		}
	default:
		return Compute(sc)
	}
}

// Names returns the variable names the plan writes, in plan order.
func (p Plan) Names() []string {
	names := make([]string, len(p.Vars))
	for i, v := range p.Vars {
		names[i] = v.Name
	}
	return names
}

// Environ merges the plan into a base environment. Entries for the plan's
// own variable names are replaced, everything else passes through
// position-for-position untouched.
func (p Plan) Environ(base []string) []string {
	if len(p.Vars) == 0 {
		return base
	}

	replaced := make(map[string]struct{}, len(p.Vars))
	for _, v := range p.Vars {
		replaced[v.Name] = struct{}{}
	}

	out := make([]string, 0, len(base)+len(p.Vars))
	for _, kv := range base {
		if name, _, ok := strings.Cut(kv, "="); ok {
			if _, drop := replaced[name]; drop {
				continue
			}
		}
		out = append(out, kv)
	}
	for _, v := range p.Vars {
		out = append(out, v.Name+"="+v.Value)
	}
	return out
}
