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
	"encoding/json"
	"fmt"
	"io"

	"github.com/SlipwayProject/slipway/pkg/config"
)

// Report wraps a check run for machine consumption.
type Report struct {
	App     string   `json:"app"`
	Version string   `json:"version"`
	Checks  []Result `json:"checks"`
	Failed  bool     `json:"failed"`
}

// NewReport builds a report from a finished check run.
func NewReport(results []Result) Report {
	return Report{
		App:     config.AppName,
		Version: config.AppVersion,
		Checks:  results,
		Failed:  Failed(results),
	}
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Failed reports whether any check failed outright. Warnings don't count:
// they describe sessions where the launcher legitimately does nothing.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// PrintReport renders the checklist in a fixed-width layout with a
// summary line.
func PrintReport(w io.Writer, results []Result) {
	width := 0
	for _, r := range results {
		if len(r.Name) > width {
			width = len(r.Name)
		}
	}

	counts := map[Status]int{}
	for _, r := range results {
		counts[r.Status]++
		_, _ = fmt.Fprintf(w, "%5s  %-*s  %s\n", statusLabel(r.Status), width, r.Name, r.Detail)
	}

	_, _ = fmt.Fprintf(w, "\n%d passed, %d warnings, %d failed, %d skipped\n",
		counts[StatusPass], counts[StatusWarn], counts[StatusFail], counts[StatusSkip])
}

func statusLabel(s Status) string {
	switch s {
	case StatusPass:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "skip"
	default:
		return string(s)
	}
}
