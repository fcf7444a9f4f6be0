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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/adrg/xdg"
)

// ConfigDir returns the user config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

// DataDir returns the user data directory, where installed bundles live.
func DataDir() string {
	return filepath.Join(xdg.DataHome, config.AppName)
}

// CacheDir returns the cache directory, used for downloaded upstream
// archives and unpacked trees.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, config.AppName)
}

// TempDir returns the scratch directory holding logs and partial downloads.
func TempDir() string {
	return filepath.Join(os.TempDir(), config.AppName)
}

// EnsureDirectories creates every directory slipway writes to at runtime.
func EnsureDirectories() error {
	for _, dir := range []string{TempDir(), ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
