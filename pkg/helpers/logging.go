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

package helpers

import (
	"io"
	"path/filepath"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogPath returns the rotating log file location.
func LogPath() string {
	return filepath.Join(TempDir(), config.LogFile)
}

// LogWriter returns the rotating file writer backing the global logger.
// Telemetry reuses it when it swaps its own writer in alongside.
func LogWriter() io.Writer {
	return &lumberjack.Logger{
		Filename:   LogPath(),
		MaxSize:    1,
		MaxBackups: 2,
	}
}

// InitLogging sets up the global logger with rotating file output. Extra
// writers are attached alongside the file, used by the CLI tools to mirror
// logs to the console in debug mode.
func InitLogging(writers ...io.Writer) error {
	if err := EnsureDirectories(); err != nil {
		return err
	}

	logWriters := []io.Writer{LogWriter()}
	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}
