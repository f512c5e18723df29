// Copyright 2025 Poiesic Systems
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


// Package metrics provides a small instrumentation surface with a no-op
// default and a Prometheus-backed recorder that can be installed at startup.
package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncStoreOpTotal(op string, success bool)
	ObserveStoreOpSeconds(op string, success bool, seconds float64)
	IncSearchTotal(outcome string)
	ObserveSearchSeconds(outcome string, seconds float64)
	IncTicks(direction string)
	IncCacheLookup(cache string, hit bool)
}

type noopRecorder struct{}

func (noopRecorder) IncStoreOpTotal(string, bool)                {}
func (noopRecorder) ObserveStoreOpSeconds(string, bool, float64) {}
func (noopRecorder) IncSearchTotal(string)                       {}
func (noopRecorder) ObserveSearchSeconds(string, float64)        {}
func (noopRecorder) IncTicks(string)                             {}
func (noopRecorder) IncCacheLookup(string, bool)                 {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation. A nil recorder
// restores the no-op default.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// TimeOp times a storage operation. Call the returned func with the outcome.
func TimeOp(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		rec := Default()
		rec.IncStoreOpTotal(op, success)
		rec.ObserveStoreOpSeconds(op, success, dur)
	}
}

// TimeSearch times a whole search session.
func TimeSearch() func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		rec := Default()
		rec.IncSearchTotal(outcome)
		rec.ObserveSearchSeconds(outcome, time.Since(start).Seconds())
	}
}
