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

// Package install copies an assembled bundle into an installation prefix
// and removes it again. The bundle tree mirrors straight into the prefix,
// so a user install under ~/.local and a system install under /usr/local
// are the same operation with a different root.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/desktop"
	"github.com/SlipwayProject/slipway/pkg/helpers"
	"github.com/SlipwayProject/slipway/pkg/helpers/command"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SystemPrefix is where -system installs land.
const SystemPrefix = "/usr/local"

// refreshTimeout bounds the desktop database and icon cache refreshes.
const refreshTimeout = 10 * time.Second

// UserPrefix is the per-user installation root. ~/.local puts binaries on
// the standard user PATH and share/ under the XDG data directory.
func UserPrefix() string {
	return filepath.Join(xdg.Home, ".local")
}

// Install mirrors the bundle tree into prefix and refreshes the desktop
// caches. It returns the installed paths relative to prefix.
func Install(ctx context.Context, fs afero.Fs, cmd command.Executor, bundleDir, prefix string) ([]string, error) {
	if bundleDir == "" {
		return nil, errors.New("bundle directory not set")
	}
	if prefix == "" {
		return nil, errors.New("install prefix not set")
	}
	if _, err := fs.Stat(filepath.Join(bundleDir, "bin", config.AppName)); err != nil {
		return nil, fmt.Errorf("not an assembled bundle (missing bin/%s): %w", config.AppName, err)
	}

	log.Info().Msgf("installing bundle %s into %s", bundleDir, prefix)

	var installed []string
	err := afero.Walk(fs, bundleDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(bundleDir, path)
		if relErr != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, relErr)
		}
		if copyErr := helpers.CopyFile(fs, path, filepath.Join(prefix, rel)); copyErr != nil {
			return copyErr
		}
		installed = append(installed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error installing bundle: %w", err)
	}

	refreshDesktopCaches(ctx, cmd, prefix)
	return installed, nil
}

// Uninstall removes the wrapper's artifacts from prefix. Files that are
// already gone are skipped, so uninstalling twice is harmless. It returns
// the paths actually removed, relative to prefix.
func Uninstall(ctx context.Context, fs afero.Fs, cmd command.Executor, prefix string) ([]string, error) {
	if prefix == "" {
		return nil, errors.New("install prefix not set")
	}

	var removed []string
	remove := func(rel string) error {
		path := filepath.Join(prefix, rel)
		if _, err := fs.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("error checking %s: %w", path, err)
		}
		if err := fs.Remove(path); err != nil {
			return fmt.Errorf("error removing %s: %w", path, err)
		}
		removed = append(removed, rel)
		return nil
	}

	targets := []string{
		filepath.Join("bin", config.AppName),
		filepath.Join("libexec", config.SlicerBin),
		filepath.Join("share", "applications", desktop.Filename()),
	}
	for _, lib := range bundledLibs(fs, prefix) {
		targets = append(targets, filepath.Join("libexec", "lib", lib))
	}
	targets = append(targets, installedIcons(fs, prefix)...)

	for _, rel := range targets {
		if err := remove(rel); err != nil {
			return removed, err
		}
	}

	// Drop now-empty private directories, leaving shared ones alone
	pruneDir := func(rel string) {
		dir := filepath.Join(prefix, rel)
		entries, readErr := afero.ReadDir(fs, dir)
		if readErr == nil && len(entries) == 0 {
			_ = fs.Remove(dir)
		}
	}
	pruneDir(filepath.Join("libexec", "lib"))
	pruneDir("libexec")

	refreshDesktopCaches(ctx, cmd, prefix)
	return removed, nil
}

// bundledLibs lists the slicer's private libraries installed under the
// prefix, by name.
func bundledLibs(fs afero.Fs, prefix string) []string {
	entries, err := afero.ReadDir(fs, filepath.Join(prefix, "libexec", "lib"))
	if err != nil {
		return nil
	}
	var libs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "lib") && strings.Contains(name, ".so") {
			libs = append(libs, name)
		}
	}
	return libs
}

// installedIcons finds the slicer's icons in the prefix's hicolor tree.
// Only files carrying the desktop id are touched; the theme directories
// belong to the system.
func installedIcons(fs afero.Fs, prefix string) []string {
	root := filepath.Join(prefix, "share", "icons", "hicolor")
	var icons []string
	_ = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil //nolint:nilerr // missing theme dirs just mean nothing to remove
		}
		base := filepath.Base(path)
		if base == config.DesktopID+".png" || base == config.DesktopID+".svg" {
			if rel, relErr := filepath.Rel(prefix, path); relErr == nil {
				icons = append(icons, rel)
			}
		}
		return nil
	})
	return icons
}

// refreshDesktopCaches tells the desktop environment about changed
// entries and icons. These are just for convenience, don't care too much
// if they fail.
func refreshDesktopCaches(ctx context.Context, cmd command.Executor, prefix string) {
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	apps := filepath.Join(prefix, "share", "applications")
	if err := cmd.Run(refreshCtx, "update-desktop-database", apps); err != nil {
		log.Debug().Err(err).Msg("update-desktop-database not available")
	}

	icons := filepath.Join(prefix, "share", "icons", "hicolor")
	if err := cmd.Run(refreshCtx, "gtk-update-icon-cache", "-f", icons); err != nil {
		log.Debug().Err(err).Msg("gtk-update-icon-cache not available")
	}
}

const installMsg = `Slipway will copy the assembled bundle into the install prefix:
- the launcher and the slicer it wraps
- a desktop entry so models open from the file manager
- the application icons

This can be reverted with the uninstall command.

Continue with install?`

// CLIInstall runs an install interactively: confirm, install, report.
func CLIInstall(ctx context.Context, fs afero.Fs, cmd command.Executor, bundleDir, prefix string, assumeYes bool) error {
	if prefix == SystemPrefix && os.Geteuid() != 0 {
		return errors.New("system install must be run as root")
	}
	if !assumeYes && !helpers.YesNoPrompt(installMsg, true) {
		_, _ = fmt.Println("Aborting install.")
		return nil
	}
	installed, err := Install(ctx, fs, cmd, bundleDir, prefix)
	if err != nil {
		_, _ = fmt.Println("Error during install:", err)
		return err
	}
	_, _ = fmt.Printf("Installed %d files to %s.\n", len(installed), prefix)
	return nil
}

// CLIUninstall runs an uninstall interactively.
func CLIUninstall(ctx context.Context, fs afero.Fs, cmd command.Executor, prefix string, assumeYes bool) error {
	if prefix == SystemPrefix && os.Geteuid() != 0 {
		return errors.New("system uninstall must be run as root")
	}
	if !assumeYes && !helpers.YesNoPrompt("Remove the installed slicer bundle?", true) {
		_, _ = fmt.Println("Aborting uninstall.")
		return nil
	}
	removed, err := Uninstall(ctx, fs, cmd, prefix)
	if err != nil {
		_, _ = fmt.Println("Error during uninstall:", err)
		return err
	}
	_, _ = fmt.Printf("Removed %d files from %s.\n", len(removed), prefix)
	return nil
}
