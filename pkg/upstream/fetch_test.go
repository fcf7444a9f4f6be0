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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveContent(t *testing.T, content []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)
	return server
}

func digestOf(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	content := []byte("fake release archive bytes")
	server := serveContent(t, content)

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	err := Fetch(context.Background(), FetchArgs{
		URL:    server.URL + "/release.tar.gz",
		Dest:   dest,
		SHA256: digestOf(content),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest) //nolint:gosec // Test file path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err), "temp file should not exist after successful download")
}

func TestFetch_NoDigestSkipsVerification(t *testing.T) {
	t.Parallel()

	content := []byte("unverified bytes")
	server := serveContent(t, content)

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	err := Fetch(context.Background(), FetchArgs{
		URL:  server.URL + "/release.tar.gz",
		Dest: dest,
	})
	require.NoError(t, err)
	assert.FileExists(t, dest)
}

func TestFetch_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	content := []byte("corrupted on the wire")
	server := serveContent(t, content)

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	err := Fetch(context.Background(), FetchArgs{
		URL:    server.URL + "/release.tar.gz",
		Dest:   dest,
		SHA256: strings.Repeat("0", 64),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "mismatched archive must not land at the destination")
	_, statErr = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed after checksum failure")
}

func TestFetch_DigestComparisonIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	content := []byte("case test")
	server := serveContent(t, content)

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	err := Fetch(context.Background(), FetchArgs{
		URL:    server.URL + "/release.tar.gz",
		Dest:   dest,
		SHA256: strings.ToUpper(digestOf(content)),
	})
	assert.NoError(t, err)
}

func TestFetch_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"NotFound", http.StatusNotFound},
		{"InternalServerError", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := Fetch(context.Background(), FetchArgs{
				URL:  server.URL + "/release.tar.gz",
				Dest: filepath.Join(t.TempDir(), "release.tar.gz"),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), fmt.Sprintf("invalid status code: %d", tt.statusCode))
		})
	}
}

func TestFetch_IncompleteDownload(t *testing.T) {
	t.Parallel()

	// Server claims more content than it sends
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	err := Fetch(context.Background(), FetchArgs{
		URL:  server.URL + "/release.tar.gz",
		Dest: dest,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error downloading file")

	_, statErr := os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed after incomplete download")
}

func TestFetch_ContextTimeout(t *testing.T) {
	t.Parallel()

	// Server that never responds
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Fetch(ctx, FetchArgs{
		URL:  server.URL + "/release.tar.gz",
		Dest: filepath.Join(t.TempDir(), "release.tar.gz"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestFetch_InvalidDestDir(t *testing.T) {
	t.Parallel()

	content := []byte("content")
	server := serveContent(t, content)

	err := Fetch(context.Background(), FetchArgs{
		URL:  server.URL + "/release.tar.gz",
		Dest: "/nonexistent/directory/release.tar.gz",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating file")
}

func TestFetch_RemovesLeftoverTempFile(t *testing.T) {
	t.Parallel()

	content := []byte("fresh download")
	server := serveContent(t, content)

	dest := filepath.Join(t.TempDir(), "release.tar.gz")
	require.NoError(t, os.WriteFile(dest+".part", []byte("stale partial"), 0o600))

	err := Fetch(context.Background(), FetchArgs{
		URL:    server.URL + "/release.tar.gz",
		Dest:   dest,
		SHA256: digestOf(content),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest) //nolint:gosec // Test file path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, content, data, "stale partial must not leak into the result")
}
