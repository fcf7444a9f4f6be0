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

// Package bundle assembles an installable tree from an unpacked slicer
// release and the wrapper binary: the wrapper in bin/, the slicer and its
// private libraries in libexec/, plus desktop entry and icons under
// share/. The layout matches what the launcher's bundle-relative
// resolution expects.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/desktop"
	"github.com/SlipwayProject/slipway/pkg/helpers"
	"github.com/SlipwayProject/slipway/pkg/helpers/syncutil"
	"github.com/SlipwayProject/slipway/pkg/upstream"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// iconWorkers bounds the concurrent per-size icon copy goroutines.
const iconWorkers = 4

// Assembly describes one bundle build. IconsDir overrides the icon source
// detected by the release scan; leave empty to use Layout.IconsDir. Entry
// overrides the shipped desktop entry, nil uses it.
type Assembly struct {
	Layout      *upstream.Layout
	Entry       *desktop.Entry
	LauncherBin string
	OutDir      string
	IconsDir    string
}

// Result reports what a bundle build produced. Files lists the installed
// artifacts relative to the output root, icons excluded; Icons counts the
// mirrored icon files. SkippedIcons is set when no icon source existed,
// which is allowed: icons are optional release content.
type Result struct {
	Files        []string
	Icons        int
	SkippedIcons bool
}

// Assemble builds the bundle tree under a.OutDir. Icon sizes copy
// concurrently; everything else is sequential since binaries and the
// desktop entry are a handful of files.
func Assemble(ctx context.Context, fs afero.Fs, a Assembly) (*Result, error) {
	if a.Layout == nil || a.Layout.Binary == "" {
		return nil, errors.New("assembly needs a scanned release layout")
	}
	if a.LauncherBin == "" {
		return nil, errors.New("assembly needs the wrapper binary path")
	}
	if a.OutDir == "" {
		return nil, errors.New("assembly needs an output directory")
	}

	res := &Result{}
	record := func(dst string) error {
		rel, err := filepath.Rel(a.OutDir, dst)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", dst, err)
		}
		res.Files = append(res.Files, rel)
		return nil
	}

	install := func(src, dst string) error {
		log.Debug().Msgf("bundling %s -> %s", src, dst)
		if err := helpers.CopyFile(fs, src, dst); err != nil {
			return fmt.Errorf("failed to bundle %s: %w", src, err)
		}
		return record(dst)
	}

	log.Info().Msgf("assembling bundle in %s", a.OutDir)

	wrapperDst := filepath.Join(a.OutDir, "bin", config.AppName)
	if err := install(a.LauncherBin, wrapperDst); err != nil {
		return nil, err
	}
	if err := fs.Chmod(wrapperDst, 0o755); err != nil {
		return nil, fmt.Errorf("failed to mark wrapper executable: %w", err)
	}

	slicerDst := filepath.Join(a.OutDir, "libexec", config.SlicerBin)
	if err := install(a.Layout.Binary, slicerDst); err != nil {
		return nil, err
	}

	for _, lib := range a.Layout.Libs {
		dst := filepath.Join(a.OutDir, "libexec", "lib", filepath.Base(lib))
		if err := install(lib, dst); err != nil {
			return nil, err
		}
	}

	entry := a.Entry
	if entry == nil {
		// Exec uses the bare wrapper name so the entry keeps working
		// wherever the bundle's bin directory lands on PATH
		shipped := desktop.LaminaStudio(config.AppName)
		entry = &shipped
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entryDst := filepath.Join(a.OutDir, "share", "applications", desktop.Filename())
	if err := fs.MkdirAll(filepath.Dir(entryDst), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create applications dir: %w", err)
	}
	if err := afero.WriteFile(fs, entryDst, entry.Render(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write desktop entry: %w", err)
	}
	if err := record(entryDst); err != nil {
		return nil, err
	}

	iconsSrc := a.IconsDir
	if iconsSrc == "" {
		iconsSrc = a.Layout.IconsDir
	}
	count, err := copyIcons(ctx, fs, iconsSrc, filepath.Join(a.OutDir, "share", "icons", "hicolor"))
	if err != nil {
		return nil, err
	}
	res.Icons = count
	if count == 0 {
		res.SkippedIcons = true
		log.Warn().Msg("release ships no icons, bundle has none")
	}

	sort.Strings(res.Files)
	return res, nil
}

// copyIcons mirrors a hicolor theme tree, one goroutine per size
// directory. A missing or empty source is not an error.
func copyIcons(ctx context.Context, fs afero.Fs, src, dst string) (int, error) {
	if src == "" {
		return 0, nil
	}
	sizes, err := afero.ReadDir(fs, src)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read icons dir: %w", err)
	}

	var (
		mu    syncutil.Mutex
		total int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(iconWorkers)
	for _, size := range sizes {
		if !size.IsDir() {
			continue
		}
		sizeDir := size.Name()
		g.Go(func() error {
			n, copyErr := copyIconSize(ctx, fs,
				filepath.Join(src, sizeDir),
				filepath.Join(dst, sizeDir))
			if copyErr != nil {
				return copyErr
			}
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to copy icons: %w", err)
	}
	return total, nil
}

func copyIconSize(ctx context.Context, fs afero.Fs, src, dst string) (int, error) {
	count := 0
	err := afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || (!strings.HasSuffix(path, ".png") && !strings.HasSuffix(path, ".svg")) {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		if err := helpers.CopyFile(fs, path, filepath.Join(dst, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", filepath.Base(src), err)
	}
	return count, nil
}
