package sim

import (
	"time"

	"radfield/server/logging"
)

// LoopConfig tunes the fixed-timestep orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
}

// LoopHooks lets the caller observe the loop without owning its goroutine.
type LoopHooks struct {
	// Prepare runs before the engine steps, while no pass is in flight.
	// Observer swaps and world edits belong here.
	Prepare func(TickContext)
	// AfterStep runs after the pass completed; it carries the pass report.
	AfterStep func(StepResult)
}

const (
	metricTicksTotal     = "sim.ticks_total"
	metricPassDurationUs = "sim.pass_duration_us"
	metricBudgetOverruns = "sim.budget_overruns_total"
	metricRaysTraced     = "radiation.rays_traced_total"
	metricRaysReached    = "radiation.rays_reached_total"
	metricTilesVisited   = "radiation.tiles_visited_total"
)

// Loop drives the engine at a fixed tick rate. There is no cancellation of a
// tick in flight: once started, a pass runs to completion; a pass that blows
// the budget is reported through metrics, not interrupted.
type Loop struct {
	engine Engine
	hooks  LoopHooks
	config LoopConfig

	tick uint64
}

// NewLoop wraps the provided engine with a fixed-timestep runner.
func NewLoop(engine Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	return &Loop{engine: engine, hooks: hooks, config: cfg}
}

// Tick reports the last completed tick number.
func (l *Loop) Tick() uint64 {
	if l == nil {
		return 0
	}
	return l.tick
}

// Advance executes a single tick synchronously. Exposed for tests and for
// headless drivers that schedule ticks themselves.
func (l *Loop) Advance(ctx TickContext) StepResult {
	if l == nil {
		return StepResult{}
	}
	if l.hooks.Prepare != nil {
		l.hooks.Prepare(ctx)
	}
	report := l.engine.Step(ctx)
	return StepResult{
		Tick:   ctx.Tick,
		Now:    ctx.Now,
		Delta:  ctx.Delta,
		Report: report,
	}
}

// Run drives the fixed-timestep loop until the stop channel closes.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	if tickRate <= 0 {
		tickRate = 5
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	deps := l.engine.Deps()
	clock := deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	last := clock.Now()
	budgetSeconds := 1.0 / float64(tickRate)
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}
	budgetDuration := time.Second / time.Duration(tickRate)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now

			l.tick++
			start := clock.Now()
			result := l.Advance(TickContext{Tick: l.tick, Now: now, Delta: dt})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budgetDuration
			result.ClampedDelta = clamped

			l.recordMetrics(deps, result)
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) recordMetrics(deps Deps, result StepResult) {
	if deps.Metrics == nil {
		return
	}
	deps.Metrics.Add(metricTicksTotal, 1)
	deps.Metrics.Store(metricPassDurationUs, uint64(result.Report.Elapsed.Microseconds()))
	deps.Metrics.Add(metricRaysTraced, uint64(result.Report.RaysTraced))
	deps.Metrics.Add(metricRaysReached, uint64(result.Report.RaysReached))
	deps.Metrics.Add(metricTilesVisited, uint64(result.Report.TilesVisited))
	if result.Duration > result.Budget && result.Budget > 0 {
		deps.Metrics.Add(metricBudgetOverruns, 1)
		if deps.Logger != nil {
			deps.Logger.Printf("[budget] tick=%d pass took %s of %s budget", result.Tick, result.Duration, result.Budget)
		}
	}
}
