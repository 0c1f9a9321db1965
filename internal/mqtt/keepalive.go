// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mqtt

import (
	"sync/atomic"
	"time"

	"github.com/gsalomao/maxmq-client/internal/safe"
)

type watchdogAction int

const (
	watchdogIdle watchdogAction = iota
	watchdogPing
	watchdogDead
)

// watchdog keeps the connection alive by sending a PINGREQ whenever no packet has been received or
// sent within half of the keep alive, and detects a dead connection when a PINGREQ is still
// unanswered on the following check.
type watchdog struct {
	clock           Clock
	lastInbound     *safe.Value[time.Time]
	lastOutbound    *safe.Value[time.Time]
	pingSentAt      *safe.Value[time.Time]
	pingOutstanding atomic.Bool
	keepAlive       time.Duration
	stopCh          chan struct{}
	runID           uint64
}

func newWatchdog(c Clock) *watchdog {
	return &watchdog{
		clock:        c,
		lastInbound:  safe.NewValue(time.Time{}),
		lastOutbound: safe.NewValue(time.Time{}),
		pingSentAt:   safe.NewValue(time.Time{}),
	}
}

// start resets the watchdog and starts checking the connection every keepAlive/2, calling tick
// with the identifier of this run. A zero keepAlive disables the checks.
func (w *watchdog) start(keepAlive time.Duration, tick func(runID uint64)) {
	w.stop()

	now := w.clock.Now()
	w.keepAlive = keepAlive
	w.pingOutstanding.Store(false)
	w.lastInbound.Store(now)
	w.lastOutbound.Store(now)
	w.runID++

	if keepAlive <= 0 {
		return
	}

	runID := w.runID
	stopCh := make(chan struct{})
	ticker := w.clock.NewTicker(keepAlive / 2)
	w.stopCh = stopCh

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C():
				tick(runID)
			}
		}
	}()
}

// stop stops the checks without waiting for a tick in progress. Ticks from a stopped run are
// identified by their run identifier.
func (w *watchdog) stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *watchdog) running(runID uint64) bool {
	return w.stopCh != nil && w.runID == runID
}

func (w *watchdog) check() watchdogAction {
	now := w.clock.Now()
	half := w.keepAlive / 2

	if now.Sub(w.lastInbound.Load()) < half && now.Sub(w.lastOutbound.Load()) < half {
		return watchdogIdle
	}
	if w.pingOutstanding.Load() {
		return watchdogDead
	}

	w.pingOutstanding.Store(true)
	w.pingSentAt.Store(now)
	w.lastInbound.Store(now)
	w.lastOutbound.Store(now)
	return watchdogPing
}

// pong handles a PINGRESP and returns the ping round trip.
func (w *watchdog) pong() time.Duration {
	now := w.clock.Now()
	w.lastInbound.Store(now)

	if !w.pingOutstanding.Swap(false) {
		return 0
	}
	return now.Sub(w.pingSentAt.Load())
}

func (w *watchdog) received() {
	w.lastInbound.Store(w.clock.Now())
}

func (w *watchdog) sent() {
	w.lastOutbound.Store(w.clock.Now())
}
