// Package schedulertest runs a scheduler.Loop against a manual clock for tests.
package schedulertest

import (
	"context"
	"testing"
	"time"

	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/scheduler"
)

// Epoch is the manual clock's start time.
var Epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type Harness struct {
	t     testing.TB
	Loop  *scheduler.Loop
	Clock *scheduler.Manual
}

// Start runs a loop until the test ends.
func Start(t testing.TB) *Harness {
	t.Helper()
	loop := scheduler.NewLoop(logger.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return &Harness{t: t, Loop: loop, Clock: scheduler.NewManual(Epoch)}
}

// Do runs fn on the loop and waits for it and all follow-up work to finish.
func (h *Harness) Do(fn func()) {
	h.t.Helper()
	if !h.Loop.Call(fn) {
		h.t.Fatalf("loop stopped")
	}
	h.Settle()
}

// Settle waits for off-loop work and queued tasks.
func (h *Harness) Settle() {
	h.t.Helper()
	if !h.Loop.Settle(5 * time.Second) {
		h.t.Fatalf("loop did not settle")
	}
}

// Advance moves the clock and lets every resulting task run.
func (h *Harness) Advance(d time.Duration) {
	h.t.Helper()
	h.Clock.Advance(d)
	h.Settle()
}

// Step advances one tick at a time, settling after each, so timer callbacks
// and the work they trigger interleave as they would in real time.
func (h *Harness) Step(d, tick time.Duration) {
	h.t.Helper()
	for elapsed := time.Duration(0); elapsed < d; elapsed += tick {
		h.Advance(tick)
	}
}
