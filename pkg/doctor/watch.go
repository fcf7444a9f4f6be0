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
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/SlipwayProject/slipway/pkg/config"
	"github.com/SlipwayProject/slipway/pkg/gfx"
	"github.com/SlipwayProject/slipway/pkg/session"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DebounceInterval is how long the watcher waits after the last change
// before re-running the checks. Driver package installs touch many files
// in a burst; one re-run covers all of them.
const DebounceInterval = 500 * time.Millisecond

// WatchPaths lists the locations whose changes should trigger a re-run:
// the zink driver directories, the EGL vendor directory and the config
// directory.
func WatchPaths(cfg *config.Instance) []string {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	for _, candidate := range session.ZinkDriverCandidates {
		add(filepath.Dir(candidate))
	}
	add(filepath.Dir(gfx.EGLVendorFile))
	add(filepath.Dir(cfg.Path()))
	return paths
}

// Watcher re-runs a callback when watched directories change, collapsing
// event bursts through a debounce timer.
type Watcher struct {
	fsw      *fsnotify.Watcher
	clock    clockwork.Clock
	onChange func()
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange after changes settle.
func NewWatcher(clock clockwork.Clock, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		clock:    clock,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Add registers directories to watch and returns how many were added.
// Missing paths are skipped, so the watch list can name optional
// locations like the multiarch driver directory.
func (w *Watcher) Add(paths ...string) int {
	added := 0
	for _, p := range paths {
		if err := w.fsw.Add(p); err != nil {
			log.Debug().Msgf("not watching %s: %v", p, err)
			continue
		}
		log.Debug().Msgf("watching %s", p)
		added++
	}
	return added
}

// Start runs the event loop in the background.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop shuts the event loop down and waits for it to finish. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer clockwork.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Chmod-only events are noise
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Msgf("change detected: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = w.clock.NewTimer(DebounceInterval)
				fire = timer.Chan()
			} else {
				timer.Reset(DebounceInterval)
			}
		case <-fire:
			timer = nil
			fire = nil
			w.onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("file watcher error")
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
