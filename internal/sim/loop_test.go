package sim

import (
	"log"
	"os"
	"testing"
	"time"

	"radfield/server/internal/radiation"
	"radfield/server/internal/telemetry"
	"radfield/server/logging"
)

type stubEngine struct {
	deps  Deps
	steps []TickContext
}

func (e *stubEngine) Step(ctx TickContext) radiation.Report {
	e.steps = append(e.steps, ctx)
	return radiation.Report{
		Tick:         ctx.Tick,
		Elapsed:      2 * time.Millisecond,
		RaysTraced:   4,
		RaysReached:  3,
		TilesVisited: 12,
	}
}

func (e *stubEngine) Deps() Deps { return e.deps }

func TestLoopAdvanceInvokesHooksInOrder(t *testing.T) {
	engine := &stubEngine{}
	var order []string
	loop := NewLoop(engine, LoopConfig{TickRate: 10}, LoopHooks{
		Prepare: func(TickContext) { order = append(order, "prepare") },
	})

	result := loop.Advance(TickContext{Tick: 3, Now: time.Now(), Delta: 0.1})
	if len(order) != 1 || order[0] != "prepare" {
		t.Fatalf("expected prepare before step, got %v", order)
	}
	if len(engine.steps) != 1 || engine.steps[0].Tick != 3 {
		t.Fatalf("expected engine stepped with tick 3, got %+v", engine.steps)
	}
	if result.Report.Tick != 3 {
		t.Fatalf("expected report carried through, got %+v", result.Report)
	}
}

func TestLoopRunStopsAndCountsTicks(t *testing.T) {
	metrics := logging.NewMetrics()
	engine := &stubEngine{deps: Deps{
		Logger:  telemetry.WrapLogger(log.New(os.Stderr, "", 0)),
		Metrics: telemetry.WrapMetrics(metrics),
	}}
	stepped := make(chan StepResult, 16)
	loop := NewLoop(engine, LoopConfig{TickRate: 100, CatchupMaxTicks: 2}, LoopHooks{
		AfterStep: func(result StepResult) { stepped <- result },
	})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		loop.Run(stop)
		close(done)
	}()

	first := <-stepped
	if first.Tick != 1 {
		t.Fatalf("expected first tick to be 1, got %d", first.Tick)
	}
	if first.Budget != 10*time.Millisecond {
		t.Fatalf("expected 10ms budget at 100Hz, got %s", first.Budget)
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop")
	}

	snapshot := metrics.Snapshot()
	ticks := snapshot.Counters[metricTicksTotal]
	if ticks == 0 {
		t.Fatalf("expected tick counter to advance")
	}
	if got := snapshot.Counters[metricRaysTraced]; got != 4*ticks {
		t.Fatalf("expected %d rays traced, got %d", 4*ticks, got)
	}
	if got := snapshot.Counters[metricRaysReached]; got != 3*ticks {
		t.Fatalf("expected %d rays reached, got %d", 3*ticks, got)
	}
	if got := snapshot.Counters[metricTilesVisited]; got != 12*ticks {
		t.Fatalf("expected %d tiles visited, got %d", 12*ticks, got)
	}
}

func TestNewLoopRequiresEngine(t *testing.T) {
	if NewLoop(nil, LoopConfig{}, LoopHooks{}) != nil {
		t.Fatalf("expected nil loop without an engine")
	}
}
