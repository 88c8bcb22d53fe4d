package sim

import (
	"time"

	"radfield/server/internal/radiation"
)

// TickContext describes one scheduled tick.
type TickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// Engine is the surface the loop drives: one synchronous radiation pass per
// tick. Implementations own the world snapshot handed to the pass.
type Engine interface {
	Step(ctx TickContext) radiation.Report
	Deps() Deps
}

// StepResult is handed to the AfterStep hook once a tick's pass completed.
// The hook invocation is the tick's completion notification.
type StepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Report       radiation.Report
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
}
