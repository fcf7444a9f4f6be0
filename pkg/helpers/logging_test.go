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
	"bytes"
	"path/filepath"
	"testing"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPathUnderTempDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(TempDir(), config.LogFile), LogPath())
}

func TestInitLogging(t *testing.T) {
	// Cannot use t.Parallel() - modifies process environment and the
	// global logger

	t.Cleanup(xdg.Reload)

	tempRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempRoot, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tempRoot, "cache"))
	t.Setenv("TMPDIR", filepath.Join(tempRoot, "tmp"))
	xdg.Reload()

	var buf bytes.Buffer
	require.NoError(t, InitLogging(&buf))

	log.Info().Msg("logging smoke test")

	assert.Contains(t, buf.String(), "logging smoke test",
		"extra writer should receive log lines")
	assert.FileExists(t, LogPath(), "rotating log file should be created")
}
