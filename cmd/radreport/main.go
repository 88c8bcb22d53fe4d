package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"radfield/server/internal/radiation"
	"radfield/server/internal/scenario"
	"radfield/server/internal/sim"
	"radfield/server/internal/tuning"
	"radfield/server/logging"
)

// reportObserver collects the rays of the final tick so the report can show
// which tiles attenuated each path.
type reportObserver struct {
	report radiation.Report
}

func (*reportObserver) Active() bool              { return true }
func (*reportObserver) ObserveRay(*radiation.Ray) {}

func (o *reportObserver) ObservePass(r radiation.Report) { o.report = r }

func main() {
	var scenarioPath string
	var configPath string
	var ticks int
	var showRays bool

	flag.StringVar(&scenarioPath, "scenario", "config/scenarios/reactor_bay.json", "scenario file to run")
	flag.StringVar(&configPath, "config", "", "optional tuning.yaml path")
	flag.IntVar(&ticks, "ticks", 1, "number of passes to run")
	flag.BoolVar(&showRays, "rays", false, "print per-ray blocker detail for the final pass")
	flag.Parse()

	if ticks <= 0 {
		fmt.Fprintln(os.Stderr, "error: -ticks must be > 0")
		os.Exit(1)
	}

	tune := tuning.Default()
	if configPath != "" {
		loaded, err := tuning.Load(configPath)
		if err != nil {
			log.Fatalf("load tuning: %v", err)
		}
		tune = loaded
	}

	file, err := scenario.Load(scenarioPath)
	if err != nil {
		log.Fatalf("load scenario: %v", err)
	}
	world, err := file.Build()
	if err != nil {
		log.Fatalf("build scenario: %v", err)
	}

	system := radiation.NewSystem(tune.RadiationConfig())
	observer := &reportObserver{}
	system.SetObserver(observer)

	engine := headlessEngine{world: world, system: system}
	loop := sim.NewLoop(engine, sim.LoopConfig{TickRate: tune.TickRateHz}, sim.LoopHooks{})

	fmt.Printf("=== Radiation Pass Report ===\n")
	fmt.Printf("scenario=%s ticks=%d max_distance=%v min_intensity=%v\n\n",
		scenarioPath, ticks, tune.Radiation.MaxDistance, tune.Radiation.MinIntensity)

	delta := 1.0 / float64(tune.TickRateHz)
	var last sim.StepResult
	start := time.Now()
	for i := 1; i <= ticks; i++ {
		last = loop.Advance(sim.TickContext{Tick: uint64(i), Now: time.Now(), Delta: delta})
	}
	elapsed := time.Since(start)

	report := observer.report
	fmt.Printf("tick=%d sources=%d receivers=%d rays_traced=%d rays_reached=%d\n",
		last.Tick, report.SourceCount, report.ReceiverCount, report.RaysTraced, report.RaysReached)
	fmt.Printf("last_pass=%.3fms total=%s\n\n", report.ElapsedMs, elapsed.Round(time.Microsecond))

	printExposure(report)
	if showRays {
		printRays(report)
	}
}

type headlessEngine struct {
	world  radiation.World
	system *radiation.System
}

func (e headlessEngine) Step(ctx sim.TickContext) radiation.Report {
	return e.system.RunTick(ctx.Tick, e.world)
}

func (e headlessEngine) Deps() sim.Deps {
	return sim.Deps{Clock: logging.SystemClock{}}
}

func printExposure(report radiation.Report) {
	ids := make([]string, 0, len(report.Exposure))
	for id := range report.Exposure {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("--- Receiver Exposure ---")
	for _, id := range ids {
		fmt.Printf("%-24s %10.3f rads\n", id, report.Exposure[id])
	}
	fmt.Println()
}

func printRays(report radiation.Report) {
	fmt.Println("--- Rays ---")
	for i := range report.Rays {
		ray := &report.Rays[i]
		status := "reached"
		if !ray.ReachedDestination {
			status = "blocked"
		}
		fmt.Printf("%s -> %s [%s] %.3f rads\n", ray.SourceID, ray.ReceiverID, status, ray.Rads)
		gridIDs := make([]string, 0, len(ray.Blockers))
		for gridID := range ray.Blockers {
			gridIDs = append(gridIDs, gridID)
		}
		sort.Strings(gridIDs)
		for _, gridID := range gridIDs {
			for _, hit := range ray.Blockers[gridID] {
				fmt.Printf("  grid=%s tile=(%d,%d) after=%.3f\n", gridID, hit.Tile.X, hit.Tile.Y, hit.RadsAfter)
			}
		}
	}
	fmt.Println()
}
