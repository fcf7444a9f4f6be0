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

package doctor

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReport(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Name: "wayland display", Status: StatusPass, Detail: "WAYLAND_DISPLAY=wayland-0"},
		{Name: "slicer binary", Status: StatusFail, Detail: "not found"},
	}

	var buf bytes.Buffer
	PrintReport(&buf, results)

	want := "   ok  wayland display  WAYLAND_DISPLAY=wayland-0\n" +
		" FAIL  slicer binary    not found\n" +
		"\n1 passed, 0 warnings, 1 failed, 0 skipped\n"
	assert.Equal(t, want, buf.String())
}

func TestFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results []Result
		want    bool
	}{
		{
			name: "all_clean",
			results: []Result{
				{Name: "a", Status: StatusPass},
				{Name: "b", Status: StatusSkip},
			},
		},
		{
			name: "warnings_are_not_failures",
			results: []Result{
				{Name: "a", Status: StatusWarn},
			},
		},
		{
			name: "one_failure_flips_it",
			results: []Result{
				{Name: "a", Status: StatusPass},
				{Name: "b", Status: StatusFail},
			},
			want: true,
		},
		{
			name: "empty_run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Failed(tt.results))
		})
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Name: "zink driver", Status: StatusPass, Detail: "/usr/lib/dri/zink_dri.so"},
		{Name: "slicer binary", Status: StatusFail, Detail: "not found"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewReport(results).WriteJSON(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "slipway", decoded.App)
	assert.Equal(t, results, decoded.Checks)
	assert.True(t, decoded.Failed)

	assert.Contains(t, buf.String(), `"status": "pass"`)
}
