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
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	logindService      = "org.freedesktop.login1"
	logindSessionPath  = "/org/freedesktop/login1/session/auto"
	logindSessionIface = "org.freedesktop.login1.Session"
	dbusPropertiesGet  = "org.freedesktop.DBus.Properties.Get"
)

// logindSessionType asks logind what kind of session the caller is in
// ("wayland", "x11", "tty"). The whole connection dance runs in a
// goroutine so a hung D-Bus daemon cannot stall the check past its
// context.
func logindSessionType(ctx context.Context) (string, error) {
	type answer struct {
		err error
		typ string
	}
	done := make(chan answer, 1)

	go func() {
		// Use SystemBusPrivate so closing the connection cannot affect
		// any shared bus connection elsewhere in the process
		conn, err := dbus.SystemBusPrivate()
		if err != nil {
			done <- answer{err: fmt.Errorf("failed to connect to system D-Bus: %w", err)}
			return
		}
		defer func() { _ = conn.Close() }()

		// Auth must be called after SystemBusPrivate
		if err := conn.Auth(nil); err != nil {
			done <- answer{err: fmt.Errorf("failed to authenticate with D-Bus: %w", err)}
			return
		}

		// Hello must be called after Auth to complete the connection setup
		if err := conn.Hello(); err != nil {
			done <- answer{err: fmt.Errorf("failed to complete D-Bus handshake: %w", err)}
			return
		}

		// The "auto" session object resolves to the caller's own session
		obj := conn.Object(logindService, logindSessionPath)
		call := obj.CallWithContext(ctx, dbusPropertiesGet, 0, logindSessionIface, "Type")
		if call.Err != nil {
			done <- answer{err: fmt.Errorf("failed to query logind session: %w", call.Err)}
			return
		}

		var v dbus.Variant
		if err := call.Store(&v); err != nil {
			done <- answer{err: fmt.Errorf("failed to decode logind reply: %w", err)}
			return
		}

		typ, ok := v.Value().(string)
		if !ok {
			done <- answer{err: errors.New("logind session type is not a string")}
			return
		}
		done <- answer{typ: typ}
	}()

	select {
	case a := <-done:
		return a.typ, a.err
	case <-ctx.Done():
		return "", fmt.Errorf("logind query interrupted: %w", ctx.Err())
	}
}
