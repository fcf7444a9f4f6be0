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
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	t.Parallel()

	t.Run("copies_contents", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/src/file.bin", []byte("payload"), 0o644))

		err := CopyFile(fs, "/src/file.bin", "/dst/file.bin")
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "/dst/file.bin")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("creates_parent_directories", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/src.bin", []byte("x"), 0o644))

		err := CopyFile(fs, "/src.bin", "/deeply/nested/dir/out.bin")
		require.NoError(t, err)

		exists, err := afero.Exists(fs, "/deeply/nested/dir/out.bin")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("preserves_executable_mode", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/src/tool", []byte("#!/bin/sh\n"), 0o755))

		err := CopyFile(fs, "/src/tool", "/dst/tool")
		require.NoError(t, err)

		info, err := fs.Stat("/dst/tool")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	})

	t.Run("errors_for_missing_source", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()

		err := CopyFile(fs, "/nope.bin", "/dst.bin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stat source")
	})

	t.Run("overwrites_existing_destination", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/src.bin", []byte("new"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/dst.bin", []byte("old-longer-content"), 0o644))

		err := CopyFile(fs, "/src.bin", "/dst.bin")
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "/dst.bin")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})
}
