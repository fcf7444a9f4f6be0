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

package config

// Renderer modes control how the launcher picks the graphics environment
// for the slicer. Auto runs session detection, the rest pin an outcome.
const (
	RendererAuto     = "auto"
	RendererZink     = "zink"
	RendererSoftware = "software"
	RendererOff      = "off"
)

type Launcher struct {
	AppPath  string            `toml:"app_path,omitempty"`
	Renderer string            `toml:"renderer,omitempty"`
	ExtraEnv map[string]string `toml:"extra_env,omitempty"`
	NoBanner bool              `toml:"no_banner"`
}

func validRenderer(mode string) bool {
	switch mode {
	case RendererAuto, RendererZink, RendererSoftware, RendererOff:
		return true
	default:
		return false
	}
}

// AppPath returns the configured slicer binary path. The SLIPWAY_APP
// environment variable takes priority over the config file value.
func (c *Instance) AppPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.appPath != "" {
		return c.appPath
	}
	return c.vals.Launcher.AppPath
}

func (c *Instance) SetAppPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Launcher.AppPath = path
}

// Renderer returns the configured renderer mode, falling back to auto for
// the empty value so old config files keep working.
func (c *Instance) Renderer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Launcher.Renderer == "" {
		return RendererAuto
	}
	return c.vals.Launcher.Renderer
}

func (c *Instance) SetRenderer(mode string) bool {
	if !validRenderer(mode) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Launcher.Renderer = mode
	return true
}

// ExtraEnv returns user-defined extra environment variables applied after
// the computed graphics set. The map is copied so callers can't mutate
// config state through it.
func (c *Instance) ExtraEnv() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.Launcher.ExtraEnv) == 0 {
		return nil
	}
	extra := make(map[string]string, len(c.vals.Launcher.ExtraEnv))
	for k, v := range c.vals.Launcher.ExtraEnv {
		extra[k] = v
	}
	return extra
}

func (c *Instance) SetExtraEnv(extra map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(extra) == 0 {
		c.vals.Launcher.ExtraEnv = nil
		return
	}
	clone := make(map[string]string, len(extra))
	for k, v := range extra {
		clone[k] = v
	}
	c.vals.Launcher.ExtraEnv = clone
}

func (c *Instance) NoBanner() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Launcher.NoBanner
}

func (c *Instance) SetNoBanner(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Launcher.NoBanner = enabled
}
