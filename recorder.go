package server

import (
	"log"
	"sync/atomic"

	"radfield/server/internal/radiation"
	"radfield/server/internal/tracelog"
	"radfield/server/logging"
)

// DebugRecorder bridges the pass observer to the debug hub and the ray trace
// log. It is inactive, and the pass skips all ray collection, whenever no
// subscriber is connected and no trace writer is configured.
type DebugRecorder struct {
	hub    *Hub
	trace  *tracelog.Writer
	clock  logging.Clock
	logger *log.Logger
	tick   atomic.Uint64
}

// NewDebugRecorder wires the observer. Both hub and trace may be nil; a
// recorder with neither never activates.
func NewDebugRecorder(hub *Hub, trace *tracelog.Writer, clock logging.Clock, logger *log.Logger) *DebugRecorder {
	if clock == nil {
		clock = logging.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DebugRecorder{hub: hub, trace: trace, clock: clock, logger: logger}
}

// BeginTick records the tick about to run. The loop calls it from the Prepare
// hook, before any ray is observed.
func (r *DebugRecorder) BeginTick(tick uint64) {
	if r == nil {
		return
	}
	r.tick.Store(tick)
}

// CurrentTick reports the tick most recently begun.
func (r *DebugRecorder) CurrentTick() uint64 {
	if r == nil {
		return 0
	}
	return r.tick.Load()
}

// Active reports whether the pass should collect per-ray debug data.
func (r *DebugRecorder) Active() bool {
	if r == nil {
		return false
	}
	if r.trace != nil {
		return true
	}
	return r.hub.HasSubscribers()
}

// ObserveRay appends the ray to the trace log when one is configured.
func (r *DebugRecorder) ObserveRay(ray *radiation.Ray) {
	if r == nil || r.trace == nil || ray == nil {
		return
	}
	entry := tracelog.FromRay(r.tick.Load(), r.clock.Now(), ray)
	if err := r.trace.Write(entry); err != nil {
		r.logger.Printf("failed to write ray trace: %v", err)
	}
}

// ObservePass fans the completed report out to the debug subscribers.
func (r *DebugRecorder) ObservePass(report radiation.Report) {
	if r == nil || r.hub == nil {
		return
	}
	if !r.hub.HasSubscribers() {
		return
	}
	r.hub.BroadcastPass(report)
}
