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

// Package desktop builds freedesktop.org desktop entries for the slicer
// so file managers and application menus launch it through the wrapper.
// Entries are validated with go-playground/validator before rendering.
package desktop

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/go-playground/validator/v10"
)

// EntryVersion is the desktop entry specification version written to
// rendered files.
const EntryVersion = "1.5"

// Entry is a desktop entry for a graphical application. Only the keys
// the wrapper needs are modeled; Render skips empty optional fields.
type Entry struct {
	Type             string   `validate:"required,oneof=Application Link Directory"`
	Name             string   `validate:"required,entrytext"`
	GenericName      string   `validate:"omitempty,entrytext"`
	Comment          string   `validate:"omitempty,entrytext"`
	Icon             string   `validate:"omitempty,entrytext"`
	Exec             string   `validate:"required,entrytext"`
	TryExec          string   `validate:"omitempty,entrytext"`
	StartupWMClass   string   `validate:"omitempty,entrytext"`
	Categories       []string `validate:"omitempty,dive,listitem"`
	MimeTypes        []string `validate:"omitempty,dive,mimetype"`
	Keywords         []string `validate:"omitempty,dive,listitem"`
	Terminal         bool
	StartupNotify    bool
	SingleMainWindow bool
}

var mimeTypeRe = regexp.MustCompile(`^[a-zA-Z0-9.+-]+/[a-zA-Z0-9.+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration can't fail with valid tag names
	_ = v.RegisterValidation("entrytext", validateEntryText)
	_ = v.RegisterValidation("listitem", validateListItem)
	_ = v.RegisterValidation("mimetype", validateMimeType)

	return v
}

// validateEntryText rejects values that would corrupt the key-value file
// format: control characters and newlines.
func validateEntryText(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\n\r\x00")
}

// validateListItem additionally rejects the list separator.
func validateListItem(fl validator.FieldLevel) bool {
	return validateEntryText(fl) && !strings.Contains(fl.Field().String(), ";")
}

func validateMimeType(fl validator.FieldLevel) bool {
	return mimeTypeRe.MatchString(fl.Field().String())
}

// Validate checks the entry against the key format rules. Rendering an
// entry that fails validation produces a file menus will refuse to parse.
func (e *Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid desktop entry: %w", err)
	}
	return nil
}

// Render serializes the entry in the freedesktop key-value format. Key
// order is fixed so repeated renders of the same entry are byte-identical.
// List values end with the separator as the format requires.
func (e *Entry) Render() []byte {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")

	writeStr := func(key, value string) {
		if value != "" {
			b.WriteString(key + "=" + value + "\n")
		}
	}
	writeList := func(key string, values []string) {
		if len(values) > 0 {
			b.WriteString(key + "=" + strings.Join(values, ";") + ";\n")
		}
	}
	writeBool := func(key string, value bool) {
		b.WriteString(key + "=" + strconv.FormatBool(value) + "\n")
	}

	writeStr("Type", e.Type)
	writeStr("Version", EntryVersion)
	writeStr("Name", e.Name)
	writeStr("GenericName", e.GenericName)
	writeStr("Comment", e.Comment)
	writeStr("TryExec", e.TryExec)
	writeStr("Exec", e.Exec)
	writeStr("Icon", e.Icon)
	writeBool("Terminal", e.Terminal)
	writeList("Categories", e.Categories)
	writeList("MimeType", e.MimeTypes)
	writeList("Keywords", e.Keywords)
	if e.StartupNotify {
		writeBool("StartupNotify", true)
	}
	writeStr("StartupWMClass", e.StartupWMClass)
	if e.SingleMainWindow {
		writeBool("SingleMainWindow", true)
	}

	return []byte(b.String())
}

// Filename is the desktop file name the slicer entry installs under.
func Filename() string {
	return config.DesktopID + ".desktop"
}

// LaminaStudio returns the shipped entry for the slicer, with Exec routed
// through the wrapper at wrapperPath so menu launches get the graphics
// environment bootstrap. %F expands to the files opened from the menu.
func LaminaStudio(wrapperPath string) Entry {
	return Entry{
		Type:           "Application",
		Name:           config.SlicerName,
		GenericName:    "3D Print Slicer",
		Comment:        "Prepare 3D models for printing",
		Icon:           config.DesktopID,
		Exec:           quoteExec(wrapperPath) + " %F",
		TryExec:        wrapperPath,
		StartupWMClass: config.DesktopID,
		Categories:     []string{"Graphics", "3DGraphics", "Engineering"},
		MimeTypes: []string{
			"model/stl",
			"model/3mf",
			"application/vnd.ms-3mfdocument",
			"application/prs.wavefront-obj",
			"application/x-amf",
		},
		Keywords:      []string{"3D", "Printing", "Slicer", "Gcode"},
		StartupNotify: true,
	}
}

// quoteExec quotes an Exec argument per the desktop entry rules when it
// contains characters the plain format can't carry.
func quoteExec(arg string) string {
	if !strings.ContainsAny(arg, " \t\"'\\`$") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
