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
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Unpack extracts a release archive into dest, removing strip leading
// path components from every entry. Format is picked by file extension.
func Unpack(src, dest string, strip int) error {
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		return untarGz(src, dest, strip)
	case strings.HasSuffix(src, ".zip"):
		return unzip(src, dest, strip)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(src))
	}
}

// stripPath removes strip leading components from an archive entry name.
// The false return means the entry is consumed entirely and should be
// skipped, like the release's single top-level directory.
func stripPath(name string, strip int) (string, bool) {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) <= strip {
		return "", false
	}
	out := path.Join(parts[strip:]...)
	if out == "" || out == "." {
		return "", false
	}
	return out, true
}

// securePath maps an archive entry to its extraction target, rejecting
// entries that would land outside dest.
func securePath(dest, name string, strip int) (string, bool, error) {
	rel, ok := stripPath(name, strip)
	if !ok {
		return "", false, nil
	}
	if !filepath.IsLocal(rel) {
		return "", false, fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return filepath.Join(dest, rel), true, nil
}

func untarGz(src, dest string, strip int) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening archive: %w", err)
	}
	defer func(file *os.File) {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing archive: %s", src)
		}
	}(file)

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("error reading gzip stream: %w", err)
	}
	defer func(gz *gzip.Reader) {
		if closeErr := gz.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing gzip reader: %s", src)
		}
	}(gz)

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading archive: %w", err)
		}

		target, ok, err := securePath(dest, hdr.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("error creating directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(hdr, strip, target); err != nil {
				return err
			}
		default:
			log.Debug().Msgf("skipping archive entry type %d: %s", hdr.Typeflag, hdr.Name)
		}
	}

	return nil
}

// writeSymlink recreates a tar symlink after checking the link target
// stays inside the extraction root.
func writeSymlink(hdr *tar.Header, strip int, target string) error {
	rel, _ := stripPath(hdr.Name, strip)
	joined := path.Join(path.Dir(rel), hdr.Linkname)
	if path.IsAbs(hdr.Linkname) || !filepath.IsLocal(joined) {
		return fmt.Errorf("archive symlink escapes destination: %s -> %s", hdr.Name, hdr.Linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	// replace any stale link from a previous unpack
	_ = os.Remove(target)
	if err := os.Symlink(hdr.Linkname, target); err != nil {
		return fmt.Errorf("error creating symlink: %w", err)
	}
	return nil
}

func unzip(src, dest string, strip int) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("error opening archive: %w", err)
	}
	defer func(reader *zip.ReadCloser) {
		if closeErr := reader.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing archive: %s", src)
		}
	}(reader)

	for _, entry := range reader.File {
		target, ok, err := securePath(dest, entry.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("error creating directory: %w", err)
			}
			continue
		}

		mode := entry.Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("error reading archive entry: %w", err)
		}
		err = writeEntry(target, rc, mode)
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing archive entry: %s", entry.Name)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	//nolint:gosec // release archives are explicit user input, bounded by the fetch step
	if _, err := io.Copy(out, src); err != nil {
		if closeErr := out.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing file: %s", target)
		}
		return fmt.Errorf("error extracting file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}
