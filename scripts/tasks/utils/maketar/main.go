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

// Release packaging helper: bundles the built binaries from a build
// directory into the distributable tarball. Run via the release task,
// not meant for direct use.
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// releaseBinaries are the tools every release tarball ships.
var releaseBinaries = []string{
	"slipway",
	"slipway-bundle",
	"slipway-doctor",
}

const readmeText = `Slipway
=======

Wrapper and packaging tools for the Lamina Studio slicer.

  slipway          launch the slicer with graphics environment detection
  slipway-bundle   fetch, assemble and install the slicer bundle
  slipway-doctor   inspect the graphics stack and report launch behavior

Run "slipway-bundle -fetch -assemble -install" to set everything up,
then start the slicer through your application menu or with "slipway".
`

func main() {
	if len(os.Args) < 3 {
		_, _ = fmt.Println("Usage: go run main.go <build_dir> <tar_name>")
		os.Exit(1)
	}

	buildDir := os.Args[1]
	tarName := os.Args[2]

	if _, err := os.Stat(buildDir); os.IsNotExist(err) {
		_, _ = fmt.Printf("The specified directory '%s' does not exist\n", buildDir)
		os.Exit(1)
	}

	var files []string
	for _, bin := range releaseBinaries {
		path := filepath.Join(buildDir, bin)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			_, _ = fmt.Printf("The binary '%s' does not exist, build it first\n", path)
			os.Exit(1)
		}
		files = append(files, path)
	}

	readmePath := filepath.Join(buildDir, "README.txt")
	if _, err := os.Stat(readmePath); os.IsNotExist(err) {
		if err := os.WriteFile(readmePath, []byte(readmeText), 0o644); err != nil {
			_, _ = fmt.Printf("Error writing README: %v\n", err)
			os.Exit(1)
		}
	}
	files = append(files, readmePath)

	licensePath := filepath.Join(buildDir, "LICENSE.txt")
	if _, err := os.Stat(licensePath); err == nil {
		files = append(files, licensePath)
	}

	tarPath := filepath.Join(buildDir, tarName)
	_ = os.Remove(tarPath)

	if err := createTarball(tarPath, files); err != nil {
		_, _ = fmt.Printf("Error creating tarball: %v\n", err)
		os.Exit(1)
	}
	_, _ = fmt.Printf("Created %s\n", tarPath)
}

// createTarball writes files into a gzipped tar at tarPath. Binaries keep
// their executable bit, archive names are the bare file names.
func createTarball(tarPath string, files []string) error {
	tarFile, err := os.Create(tarPath)
	if err != nil {
		return fmt.Errorf("error creating tar file: %w", err)
	}
	defer func(tarFile *os.File) {
		_ = tarFile.Close()
	}(tarFile)

	gzWriter := gzip.NewWriter(tarFile)
	defer func(gzWriter *gzip.Writer) {
		_ = gzWriter.Close()
	}(gzWriter)

	tarWriter := tar.NewWriter(gzWriter)
	defer func(tarWriter *tar.Writer) {
		_ = tarWriter.Close()
	}(tarWriter)

	for _, file := range files {
		if err := addFileToTar(tarWriter, file); err != nil {
			return fmt.Errorf("error adding %s: %w", file, err)
		}
	}

	return nil
}

func addFileToTar(tarWriter *tar.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	if isReleaseBinary(header.Name) {
		header.Mode = 0o755
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tarWriter, file)
	return err
}

func isReleaseBinary(name string) bool {
	for _, bin := range releaseBinaries {
		if strings.EqualFold(name, bin) {
			return true
		}
	}
	return false
}
