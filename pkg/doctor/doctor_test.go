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
	"context"
	"errors"
	"testing"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/gfx"
	"github.com/SlipwayProject/slipway/pkg/session"
	"github.com/SlipwayProject/slipway/pkg/testing/helpers"
	"github.com/SlipwayProject/slipway/pkg/testing/mocks"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type doctorFixture struct {
	d   *Doctor
	cmd *mocks.MockCommandExecutor
	fs  afero.Fs
	env map[string]string
}

// newFixture builds a doctor whose probes all hit fakes: empty
// environment, in-memory filesystem, permissive command mock, no D-Bus.
func newFixture(t *testing.T) *doctorFixture {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	cmd := helpers.NewMockCommandExecutor()
	env := make(map[string]string)

	d := New(cfg)
	d.Prober = &session.Prober{
		Getenv: func(key string) string { return env[key] },
		Cmd:    cmd,
		Fs:     fs,
	}
	d.Launcher.Cmd = cmd
	d.Launcher.Fs = fs
	d.Launcher.Executable = func() (string, error) { return "", errors.New("not bundled") }
	d.SessionType = func(context.Context) (string, error) {
		return "", errors.New("dbus unavailable")
	}
	d.HostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{
			Platform:        "debian",
			PlatformVersion: "13",
			KernelVersion:   "6.12.0-test",
		}, nil
	}
	d.Memory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 16 << 30}, nil
	}

	return &doctorFixture{d: d, cmd: cmd, fs: fs, env: env}
}

func TestRun_ReportsEveryCheckInOrder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	results := fx.d.Run(context.Background())

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		assert.NotEmpty(t, r.Status, "check %s has no status", r.Name)
		assert.NotEmpty(t, r.Detail, "check %s has no detail", r.Name)
	}
	assert.Equal(t, []string{
		"wayland display",
		"logind session",
		"nvidia driver",
		"zink driver",
		"egl vendor file",
		"diagnostic tools",
		"host",
		"slicer binary",
		"config file",
		"environment plan",
	}, names)

	// Nothing fails on a plain non-Wayland box: the launcher just
	// passes the session through untouched there.
	assert.False(t, Failed(results))
}

func TestCheckWayland(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	status, detail := fx.d.checkWayland(context.Background())
	assert.Equal(t, StatusWarn, status)
	assert.Contains(t, detail, "unset")

	fx.env[session.WaylandDisplayEnv] = "wayland-0"
	status, detail = fx.d.checkWayland(context.Background())
	assert.Equal(t, StatusPass, status)
	assert.Equal(t, "WAYLAND_DISPLAY=wayland-0", detail)
}

func TestCheckLogind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sessionErr     error
		name           string
		sessionType    string
		waylandDisplay string
		wantDetail     string
		wantStatus     Status
	}{
		{
			name:        "dbus_unavailable_skips",
			sessionErr:  errors.New("no system bus"),
			wantStatus:  StatusSkip,
			wantDetail:  "logind unavailable",
			sessionType: "",
		},
		{
			name:           "wayland_agreement",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			wantStatus:     StatusPass,
			wantDetail:     "logind agrees: wayland session",
		},
		{
			name:        "wayland_without_display_env",
			sessionType: "wayland",
			wantStatus:  StatusWarn,
			wantDetail:  "WAYLAND_DISPLAY is unset",
		},
		{
			name:           "x11_with_display_env",
			sessionType:    "x11",
			waylandDisplay: "wayland-1",
			wantStatus:     StatusWarn,
			wantDetail:     "logind reports a x11 session but WAYLAND_DISPLAY is set",
		},
		{
			name:        "x11_agreement",
			sessionType: "x11",
			wantStatus:  StatusPass,
			wantDetail:  "logind agrees: x11 session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t)
			fx.d.SessionType = func(context.Context) (string, error) {
				return tt.sessionType, tt.sessionErr
			}
			if tt.waylandDisplay != "" {
				fx.env[session.WaylandDisplayEnv] = tt.waylandDisplay
			}

			status, detail := fx.d.checkLogind(context.Background())
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, detail, tt.wantDetail)
		})
	}
}

func TestCheckNvidia(t *testing.T) {
	t.Parallel()

	t.Run("not_on_path_skips", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.cmd.ExpectedCalls = nil
		fx.cmd.On("LookPath", session.NvidiaTool).
			Return("", errors.New("not in $PATH"))

		status, detail := fx.d.checkNvidia(context.Background())
		assert.Equal(t, StatusSkip, status)
		assert.Contains(t, detail, "not on PATH")
		fx.cmd.AssertExpectations(t)
	})

	t.Run("responding_passes", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		status, detail := fx.d.checkNvidia(context.Background())
		assert.Equal(t, StatusPass, status)
		assert.Contains(t, detail, "responding")
	})

	t.Run("present_but_failing_warns", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.cmd.ExpectedCalls = nil
		fx.cmd.On("LookPath", session.NvidiaTool).
			Return("/usr/bin/nvidia-smi", nil)
		fx.cmd.On("Run", mock.Anything, session.NvidiaTool, mock.Anything).
			Return(errors.New("exit status 9"))

		status, detail := fx.d.checkNvidia(context.Background())
		assert.Equal(t, StatusWarn, status)
		assert.Contains(t, detail, "not responding")
	})
}

func TestCheckZink(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	status, detail := fx.d.checkZink(context.Background())
	assert.Equal(t, StatusWarn, status)
	assert.Contains(t, detail, "no zink driver")

	require.NoError(t, afero.WriteFile(fx.fs,
		session.ZinkDriverCandidates[1], []byte{0x7f}, 0o644))
	status, detail = fx.d.checkZink(context.Background())
	assert.Equal(t, StatusPass, status)
	assert.Equal(t, session.ZinkDriverCandidates[1], detail)

	// The multiarch path wins once both exist, matching probe order
	require.NoError(t, afero.WriteFile(fx.fs,
		session.ZinkDriverCandidates[0], []byte{0x7f}, 0o644))
	_, detail = fx.d.checkZink(context.Background())
	assert.Equal(t, session.ZinkDriverCandidates[0], detail)
}

func TestCheckEGLVendor(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	status, detail := fx.d.checkEGLVendor(context.Background())
	assert.Equal(t, StatusWarn, status)
	assert.Contains(t, detail, gfx.EGLVendorFile)

	require.NoError(t, afero.WriteFile(fx.fs, gfx.EGLVendorFile, []byte("{}"), 0o644))
	status, detail = fx.d.checkEGLVendor(context.Background())
	assert.Equal(t, StatusPass, status)
	assert.Equal(t, gfx.EGLVendorFile, detail)
}

func TestCheckTools(t *testing.T) {
	t.Parallel()

	t.Run("all_present", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		status, detail := fx.d.checkTools(context.Background())
		assert.Equal(t, StatusPass, status)
		assert.Contains(t, detail, "on PATH")
	})

	t.Run("missing_tools_listed", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.cmd.ExpectedCalls = nil
		fx.cmd.On("LookPath", "vulkaninfo").Return("/usr/bin/vulkaninfo", nil)
		fx.cmd.On("LookPath", "eglinfo").Return("", errors.New("not found"))
		fx.cmd.On("LookPath", "glxinfo").Return("/usr/bin/glxinfo", nil)

		status, detail := fx.d.checkTools(context.Background())
		assert.Equal(t, StatusWarn, status)
		assert.Contains(t, detail, "eglinfo")
		assert.NotContains(t, detail, "vulkaninfo")
	})
}

func TestCheckHost(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	status, detail := fx.d.checkHost(context.Background())
	assert.Equal(t, StatusPass, status)
	assert.Contains(t, detail, "debian 13")
	assert.Contains(t, detail, "kernel 6.12.0-test")
	assert.Contains(t, detail, "16.0 GiB memory")

	fx.d.Memory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("no meminfo")
	}
	status, detail = fx.d.checkHost(context.Background())
	assert.Equal(t, StatusPass, status, "memory is a nice-to-have, not a failure")
	assert.NotContains(t, detail, "GiB")

	fx.d.HostInfo = func(context.Context) (*host.InfoStat, error) {
		return nil, errors.New("no host info")
	}
	status, _ = fx.d.checkHost(context.Background())
	assert.Equal(t, StatusWarn, status)
}

func TestCheckBinary(t *testing.T) {
	t.Parallel()

	t.Run("resolved_passes", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		status, detail := fx.d.checkBinary(context.Background())
		assert.Equal(t, StatusPass, status)
		assert.Equal(t, "/usr/bin/mocked", detail)
	})

	t.Run("unresolved_fails", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.cmd.ExpectedCalls = nil
		fx.cmd.On("LookPath", mock.AnythingOfType("string")).
			Return("", errors.New("not found"))

		status, detail := fx.d.checkBinary(context.Background())
		assert.Equal(t, StatusFail, status)
		assert.Contains(t, detail, config.SlicerBin+" not found")
	})
}

func TestCheckConfig(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	// The probe fs is in-memory, so the on-disk default file is invisible
	status, detail := fx.d.checkConfig(context.Background())
	assert.Equal(t, StatusWarn, status)
	assert.Contains(t, detail, "defaults in effect")

	require.NoError(t, afero.WriteFile(fx.fs, fx.d.Cfg.Path(), []byte(""), 0o644))
	status, detail = fx.d.checkConfig(context.Background())
	assert.Equal(t, StatusPass, status)
	assert.Equal(t, fx.d.Cfg.Path(), detail)

	require.True(t, fx.d.Cfg.SetRenderer(config.RendererSoftware))
	_, detail = fx.d.checkConfig(context.Background())
	assert.Contains(t, detail, "renderer pinned to software")
}

func TestCheckPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		renderer   string
		wantDetail string
	}{
		{
			name:       "auto_outside_wayland",
			renderer:   config.RendererAuto,
			wantDetail: "renderer none, environment untouched",
		},
		{
			name:       "pinned_zink",
			renderer:   config.RendererZink,
			wantDetail: "renderer zink, 7 variables",
		},
		{
			name:       "pinned_software",
			renderer:   config.RendererSoftware,
			wantDetail: "renderer software, 4 variables",
		},
		{
			name:       "off",
			renderer:   config.RendererOff,
			wantDetail: "renderer none, environment untouched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t)
			require.True(t, fx.d.Cfg.SetRenderer(tt.renderer))

			status, detail := fx.d.checkPlan(context.Background())
			assert.Equal(t, StatusPass, status)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}
