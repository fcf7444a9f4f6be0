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

import "runtime"

type Bundle struct {
	Manifest string `toml:"manifest,omitempty"`
	IconsDir string `toml:"icons_dir,omitempty"`
	Arch     string `toml:"arch,omitempty"`
}

// ManifestPath returns the path to a user-supplied fetch manifest, or empty
// to use the embedded one.
func (c *Instance) ManifestPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Bundle.Manifest
}

func (c *Instance) SetManifestPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Bundle.Manifest = path
}

// IconsDir returns an override icon directory to bundle in place of the
// icons shipped in the upstream archive, or empty for no override.
func (c *Instance) IconsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Bundle.IconsDir
}

// Arch returns the architecture label used to pick the upstream artifact.
// Defaults to the build architecture in upstream naming convention.
func (c *Instance) Arch() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Bundle.Arch != "" {
		return c.vals.Bundle.Arch
	}
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}
