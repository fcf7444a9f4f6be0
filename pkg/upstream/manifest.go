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

// Package upstream handles the slicer release itself: the manifest that
// describes a release, downloading and verifying the archive, unpacking
// it and scanning the unpacked tree for the pieces a bundle needs.
package upstream

import (
	_ "embed"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Manifest describes one upstream slicer release. URL is a template with
// {version} and {arch} placeholders; SHA256 holds per-arch digests of the
// release archive. Path fields are relative to the unpacked archive root
// after Strip leading components are removed.
type Manifest struct {
	Name     string            `toml:"name" validate:"required"`
	Version  string            `toml:"version" validate:"required"`
	URL      string            `toml:"url" validate:"required,urltemplate"`
	BinPath  string            `toml:"bin_path" validate:"required,relpath"`
	LibDir   string            `toml:"lib_dir" validate:"omitempty,relpath"`
	IconsDir string            `toml:"icons_dir" validate:"omitempty,relpath"`
	SHA256   map[string]string `toml:"sha256" validate:"omitempty,dive,len=64,hexadecimal"`
	Strip    int               `toml:"strip" validate:"gte=0,lte=3"`
}

//go:embed manifest.toml
var defaultManifestTOML []byte

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration can't fail with valid tag names
	_ = v.RegisterValidation("urltemplate", validateURLTemplate)
	_ = v.RegisterValidation("relpath", validateRelPath)

	return v
}

// validateURLTemplate checks the template parses to an http(s) URL once
// the placeholders are substituted.
func validateURLTemplate(fl validator.FieldLevel) bool {
	raw := strings.NewReplacer("{version}", "0", "{arch}", "x86_64").
		Replace(fl.Field().String())
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateRelPath rejects absolute paths and anything that climbs out of
// the archive root.
func validateRelPath(fl validator.FieldLevel) bool {
	return filepath.IsLocal(fl.Field().String())
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return parseManifest(data)
}

// DefaultManifest returns the release manifest shipped with the wrapper.
func DefaultManifest() (*Manifest, error) {
	return parseManifest(defaultManifestTOML)
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// ResolveURL expands the URL template for one architecture.
func (m *Manifest) ResolveURL(arch string) string {
	return strings.NewReplacer(
		"{version}", m.Version,
		"{arch}", arch,
	).Replace(m.URL)
}

// Checksum returns the expected archive digest for an architecture, if
// the manifest carries one.
func (m *Manifest) Checksum(arch string) (string, bool) {
	digest, ok := m.SHA256[arch]
	return digest, ok
}

// ArchiveName is the local filename the release archive downloads to.
func (m *Manifest) ArchiveName(arch string) string {
	u, err := url.Parse(m.ResolveURL(arch))
	if err != nil || u.Path == "" || u.Path == "/" {
		return fmt.Sprintf("%s-%s-%s.archive", m.Name, m.Version, arch)
	}
	return filepath.Base(u.Path)
}
