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

//go:build linux

// The slipway-bundle tool packages the upstream slicer release: fetch
// downloads and verifies the archive, assemble unpacks it and builds the
// installable bundle tree, install and uninstall manage the desktop
// integration. The stages combine, a full build is
// -fetch -assemble -install.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SlipwayProject/slipway/pkg/bundle"
	"github.com/SlipwayProject/slipway/pkg/cli"
	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/helpers"
	"github.com/SlipwayProject/slipway/pkg/helpers/command"
	"github.com/SlipwayProject/slipway/pkg/install"
	"github.com/SlipwayProject/slipway/pkg/upstream"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()

	doFetch := flag.Bool(
		"fetch",
		false,
		"download the upstream release archive",
	)
	doAssemble := flag.Bool(
		"assemble",
		false,
		"unpack the archive and assemble the bundle tree",
	)
	doInstall := flag.Bool(
		"install",
		false,
		"install the assembled bundle",
	)
	doUninstall := flag.Bool(
		"uninstall",
		false,
		"remove an installed bundle",
	)
	systemWide := flag.Bool(
		"system",
		false,
		"target "+install.SystemPrefix+" instead of the user prefix",
	)
	manifestFlag := flag.String(
		"manifest",
		"",
		"release manifest path overriding the embedded one",
	)
	wrapperBin := flag.String(
		"wrapper",
		"",
		"wrapper binary to bundle, defaults to the slipway next to this tool",
	)
	outDir := flag.String(
		"out",
		"",
		"work directory for the archive and bundle tree",
	)
	assumeYes := flag.Bool(
		"yes",
		false,
		"answer yes to all prompts",
	)

	flags.Pre()

	if !*doFetch && !*doAssemble && !*doInstall && !*doUninstall {
		return errors.New("nothing to do, pass -fetch, -assemble, -install or -uninstall")
	}
	if *doUninstall && (*doFetch || *doAssemble || *doInstall) {
		return errors.New("-uninstall cannot combine with other stages")
	}

	ctx := context.Background()
	osFs := afero.NewOsFs()
	executor := &command.RealExecutor{}

	prefix := install.UserPrefix()
	if *systemWide {
		prefix = install.SystemPrefix
	}
	work := *outDir
	if work == "" {
		work = filepath.Join(helpers.CacheDir(), "work")
	}
	bundleDir := filepath.Join(work, "bundle")

	// Bare install and uninstall run before config setup so a root
	// invocation for the system scope never writes config and logs
	// into root's home.
	if *doUninstall {
		if err := install.CLIUninstall(ctx, osFs, executor, prefix, *assumeYes); err != nil {
			return errors.New("uninstall failed")
		}
		return nil
	}
	if *doInstall && !*doFetch && !*doAssemble {
		if err := install.CLIInstall(ctx, osFs, executor, bundleDir, prefix, *assumeYes); err != nil {
			return errors.New("install failed")
		}
		return nil
	}

	cfg := cli.Setup(config.BaseDefaults)
	flags.Post()

	manifestPath := *manifestFlag
	if manifestPath == "" {
		manifestPath = cfg.ManifestPath()
	}
	var (
		m   *upstream.Manifest
		err error
	)
	if manifestPath != "" {
		m, err = upstream.LoadManifest(osFs, manifestPath)
	} else {
		m, err = upstream.DefaultManifest()
	}
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	arch := cfg.Arch()
	archivePath := filepath.Join(work, m.ArchiveName(arch))

	if *doFetch {
		sum, ok := m.Checksum(arch)
		if !ok {
			log.Warn().Msgf("manifest carries no digest for %s, skipping verification", arch)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, config.FetchTimeout)
		defer cancel()

		_, _ = fmt.Printf("Fetching %s %s (%s)...\n", m.Name, m.Version, arch)
		if err := upstream.Fetch(fetchCtx, upstream.FetchArgs{
			URL:    m.ResolveURL(arch),
			Dest:   archivePath,
			SHA256: sum,
		}); err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		_, _ = fmt.Printf("Saved %s.\n", archivePath)
	}

	if *doAssemble {
		releaseDir := filepath.Join(work, "release")
		// Leftovers from a previous unpack would pollute the scan
		if err := os.RemoveAll(releaseDir); err != nil {
			return fmt.Errorf("failed to clear release dir: %w", err)
		}

		if err := upstream.Unpack(archivePath, releaseDir, m.Strip); err != nil {
			return fmt.Errorf("unpack failed: %w", err)
		}

		layout, err := upstream.Scan(releaseDir, config.SlicerBin)
		if err != nil {
			return fmt.Errorf("release scan failed: %w", err)
		}

		wrapper := *wrapperBin
		if wrapper == "" {
			wrapper, err = findWrapper(executor)
			if err != nil {
				return err
			}
		}

		res, err := bundle.Assemble(ctx, osFs, bundle.Assembly{
			Layout:      layout,
			LauncherBin: wrapper,
			OutDir:      bundleDir,
			IconsDir:    cfg.IconsDir(),
		})
		if err != nil {
			return fmt.Errorf("assembly failed: %w", err)
		}
		_, _ = fmt.Printf("Assembled %d files and %d icons in %s.\n",
			len(res.Files), res.Icons, bundleDir)
	}

	if *doInstall {
		if err := install.CLIInstall(ctx, osFs, executor, bundleDir, prefix, *assumeYes); err != nil {
			return errors.New("install failed")
		}
	}

	return nil
}

// findWrapper locates the slipway wrapper to bundle: next to this
// executable first, PATH second. Release builds ship both binaries in
// one directory so the sibling hit is the common case.
func findWrapper(executor command.Executor) (string, error) {
	exe, err := os.Executable()
	if err == nil {
		sibling := filepath.Join(filepath.Dir(exe), config.AppName)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return sibling, nil
		}
	}

	path, err := executor.LookPath(config.AppName)
	if err != nil {
		return "", errors.New("no wrapper binary found, pass -wrapper")
	}
	return path, nil
}
