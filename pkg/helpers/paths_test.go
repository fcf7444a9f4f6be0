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
	"path/filepath"
	"testing"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppDirsCarryAppName(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{ConfigDir(), DataDir(), CacheDir(), TempDir()} {
		assert.True(t, filepath.IsAbs(dir), "dir should be absolute: %s", dir)
		assert.Equal(t, config.AppName, filepath.Base(dir),
			"dir should end with the app name: %s", dir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	// Cannot use t.Parallel() - modifies process environment

	// Registered before Setenv so the reload runs after env restore
	t.Cleanup(xdg.Reload)

	tempRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempRoot, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tempRoot, "cache"))
	t.Setenv("TMPDIR", filepath.Join(tempRoot, "tmp"))
	xdg.Reload()

	require.NoError(t, EnsureDirectories())

	assert.DirExists(t, ConfigDir())
	assert.DirExists(t, CacheDir())
	assert.DirExists(t, TempDir())

	// Running again over existing directories should be a no-op
	require.NoError(t, EnsureDirectories())
}
