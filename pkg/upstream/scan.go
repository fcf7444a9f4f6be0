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

package upstream

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SlipwayProject/slipway/pkg/helpers/syncutil"
	"github.com/charlievieth/fastwalk"
)

// ErrNoBinary means a scanned release tree carries no executable with
// the expected slicer name.
var ErrNoBinary = errors.New("no slicer binary in release")

// Layout is what a release tree scan found: the slicer executable, its
// private shared libraries and the root of its hicolor icon theme.
type Layout struct {
	Binary   string
	IconsDir string
	Libs     []string
}

// Scan walks an unpacked release tree and locates the pieces a bundle
// needs. Results are sorted so repeated scans of the same tree agree,
// regardless of walk order. Symlinked libraries are kept as entries so
// soname links survive into the bundle.
func Scan(root, binName string) (*Layout, error) {
	var (
		mu        syncutil.Mutex
		binaries  []string
		libs      []string
		iconRoots []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if name == "hicolor" && filepath.Base(filepath.Dir(p)) == "icons" {
				mu.Lock()
				iconRoots = append(iconRoots, p)
				mu.Unlock()
			}
			return nil
		}

		switch {
		case name == binName && d.Type().IsRegular():
			info, infoErr := d.Info()
			if infoErr != nil || info.Mode()&0o111 == 0 {
				return nil
			}
			mu.Lock()
			binaries = append(binaries, p)
			mu.Unlock()
		case strings.HasPrefix(name, "lib") && strings.Contains(name, ".so"):
			mu.Lock()
			libs = append(libs, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning release tree: %w", err)
	}

	if len(binaries) == 0 {
		return nil, fmt.Errorf("%w: %s under %s", ErrNoBinary, binName, root)
	}

	// Shallowest match wins so a stray copy deep in the tree can't shadow
	// the real binary
	sort.Slice(binaries, func(i, j int) bool {
		di := strings.Count(binaries[i], string(filepath.Separator))
		dj := strings.Count(binaries[j], string(filepath.Separator))
		if di != dj {
			return di < dj
		}
		return binaries[i] < binaries[j]
	})
	sort.Strings(libs)
	sort.Strings(iconRoots)

	layout := &Layout{
		Binary: binaries[0],
		Libs:   libs,
	}
	if len(iconRoots) > 0 {
		layout.IconsDir = iconRoots[0]
	}
	return layout, nil
}
