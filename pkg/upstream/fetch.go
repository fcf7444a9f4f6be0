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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var timeoutTr = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ResponseHeaderTimeout: 30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
}

var httpClient = &http.Client{
	Transport: timeoutTr,
}

// FetchArgs describes one archive download. SHA256 is the expected hex
// digest; empty skips verification.
type FetchArgs struct {
	URL    string
	Dest   string
	SHA256 string
}

// Fetch downloads a release archive to args.Dest. The body streams into a
// .part file that is only renamed into place once the size and digest
// check out, so an interrupted or corrupt download never leaves a
// plausible-looking archive behind.
func Fetch(ctx context.Context, args FetchArgs) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error getting url: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msgf("closing body")
		}
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invalid status code: %d", resp.StatusCode)
	}

	tempPath := args.Dest + ".part"
	if _, statErr := os.Stat(tempPath); statErr == nil {
		log.Warn().Msgf("removing leftover temp file: %s", tempPath)
		if removeErr := os.Remove(tempPath); removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing temp file: %s", tempPath)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("error checking temp file: %w", statErr)
	}

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hasher), resp.Body)
	if err != nil {
		discardTemp(file, tempPath)
		return fmt.Errorf("error downloading file: %w", err)
	}

	expected := resp.ContentLength
	if expected > 0 && written != expected {
		discardTemp(file, tempPath)
		return fmt.Errorf("download incomplete: expected %d bytes, got %d", expected, written)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}

	if args.SHA256 != "" {
		digest := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(digest, args.SHA256) {
			if removeErr := os.Remove(tempPath); removeErr != nil {
				log.Warn().Err(removeErr).Msgf("error removing temp file: %s", tempPath)
			}
			return fmt.Errorf("checksum mismatch: expected %s, got %s", args.SHA256, digest)
		}
		log.Debug().Msgf("archive digest verified: %s", digest)
	}

	if err := os.Rename(tempPath, args.Dest); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing temp file: %s", tempPath)
		}
		return fmt.Errorf("error renaming temp file: %w", err)
	}

	return nil
}

// discardTemp closes and removes a partial download, logging rather than
// failing since the caller already has the real error.
func discardTemp(file *os.File, tempPath string) {
	if err := file.Close(); err != nil {
		log.Warn().Err(err).Msgf("error closing file: %s", tempPath)
	}
	if err := os.Remove(tempPath); err != nil {
		log.Warn().Err(err).Msgf("error removing partial download: %s", tempPath)
	}
}
