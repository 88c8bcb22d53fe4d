package radiation

import (
	"sync"
	"time"

	"radfield/server/internal/spatial"
)

// Config carries the tuning constants the pass evaluates every ray against.
type Config struct {
	// MaxDistance is the hard cutoff past which a pair is never paired. A
	// performance bound, not physics.
	MaxDistance float64
	// MinIntensity is the floor below which a ray is dropped or zeroed.
	MinIntensity float64
	// SimplifiedSameGrid tests only the shared grid when both endpoints sit
	// on it, instead of box-querying every grid.
	SimplifiedSameGrid bool
	// IndexCellSize is the bucket size of the grid candidate index.
	IndexCellSize float64
	// Workers shards receivers across goroutines. Values below 2 keep the
	// pass fully synchronous.
	Workers int
}

// DefaultConfig mirrors the tuning shipped in config/tuning.yaml.
func DefaultConfig() Config {
	return Config{
		MaxDistance:        100,
		MinIntensity:       0.1,
		SimplifiedSameGrid: true,
		IndexCellSize:      64,
		Workers:            1,
	}
}

// World is the host simulation's per-tick input: read-only collections of
// grids and sources, plus the receivers whose Exposure fields the pass
// overwrites. The pass never reaches into a live entity graph.
type World struct {
	Grids     []*Grid
	Sources   []Source
	Receivers []*Receiver
	Quantity  QuantityFunc
}

// Report summarizes one completed pass. Rays is populated only when a debug
// observer was active for the tick.
type Report struct {
	Tick          uint64             `json:"tick"`
	Elapsed       time.Duration      `json:"-"`
	ElapsedMs     float64            `json:"elapsedTimeMs"`
	SourceCount   int                `json:"sourceCount"`
	ReceiverCount int                `json:"receiverCount"`
	RaysTraced    int                `json:"raysTraced"`
	RaysReached   int                `json:"raysReached"`
	TilesVisited  int                `json:"tilesVisited"`
	Exposure      map[string]float64 `json:"exposure"`
	Rays          []Ray              `json:"rays,omitempty"`
}

// System runs the radiation pass. It owns no world state: grids, sources and
// receivers are supplied each tick and only each receiver's Exposure field is
// written back.
type System struct {
	cfg   Config
	index *spatial.Index
	grids map[string]*Grid

	mu       sync.Mutex
	observer Observer

	onDegenerate func(gridID string)
	warned       map[string]struct{}
}

// NewSystem builds a pass runner with the no-op observer installed.
func NewSystem(cfg Config) *System {
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultConfig().MaxDistance
	}
	if cfg.MinIntensity < 0 {
		cfg.MinIntensity = 0
	}
	return &System{
		cfg:      cfg,
		index:    spatial.NewIndex(cfg.IndexCellSize),
		grids:    make(map[string]*Grid),
		observer: NopObserver{},
		warned:   make(map[string]struct{}),
	}
}

// SetObserver swaps the debug observer. The change takes effect at the next
// tick; a nil observer reinstalls the no-op default.
func (s *System) SetObserver(obs Observer) {
	if s == nil {
		return
	}
	if obs == nil {
		obs = NopObserver{}
	}
	s.mu.Lock()
	s.observer = obs
	s.mu.Unlock()
}

// OnDegenerateGrid installs a hook fired the first time a grid with unusable
// geometry (non-positive tile size) is seen. Such grids are treated as fully
// transparent, never as an error.
func (s *System) OnDegenerateGrid(fn func(gridID string)) {
	if s == nil {
		return
	}
	s.onDegenerate = fn
}

// RunTick executes one synchronous pass over the supplied world and returns
// its report. Exposure on every receiver is overwritten exactly once: to the
// sum of rays that reached it, or to zero.
func (s *System) RunTick(tick uint64, world World) Report {
	start := time.Now()

	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()
	collect := obs.Active()

	s.registerGrids(world.Grids)
	samples := CollectSources(world.Sources, world.Quantity)

	report := Report{
		Tick:          tick,
		SourceCount:   len(samples),
		ReceiverCount: len(world.Receivers),
		Exposure:      make(map[string]float64, len(world.Receivers)),
	}

	shards := s.runShards(samples, world.Receivers, collect)
	for _, shard := range shards {
		report.RaysTraced += shard.traced
		report.RaysReached += shard.reached
		report.TilesVisited += shard.tiles
		if collect {
			report.Rays = append(report.Rays, shard.rays...)
		}
	}
	for _, rcv := range world.Receivers {
		report.Exposure[rcv.ID] = rcv.Exposure
	}

	report.Elapsed = time.Since(start)
	report.ElapsedMs = float64(report.Elapsed.Microseconds()) / 1000.0

	if collect {
		for i := range report.Rays {
			obs.ObserveRay(&report.Rays[i])
		}
	}
	obs.ObservePass(report)
	return report
}

// registerGrids rebuilds the candidate index from this tick's grid set.
func (s *System) registerGrids(grids []*Grid) {
	clear(s.grids)
	s.index.Reset()
	for _, g := range grids {
		if g == nil || g.ID == "" {
			continue
		}
		if g.Degenerate() {
			if _, seen := s.warned[g.ID]; !seen {
				s.warned[g.ID] = struct{}{}
				if s.onDegenerate != nil {
					s.onDegenerate(g.ID)
				}
			}
			continue
		}
		s.grids[g.ID] = g
		if bounds := g.WorldBounds(); !bounds.Empty() {
			s.index.Upsert(g.ID, bounds)
		}
	}
}

type shardResult struct {
	traced  int
	reached int
	tiles   int
	rays    []Ray
}

// runShards traces every source against every receiver, optionally sharding
// receivers across workers. Each ray reads only immutable snapshots and each
// receiver is written by exactly one worker, so workers share no mutable
// state; debug rays are collected per shard and merged by the caller.
func (s *System) runShards(samples []SourceSample, receivers []*Receiver, collect bool) []shardResult {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(receivers) {
		workers = len(receivers)
	}
	if workers <= 1 {
		result := s.traceShard(samples, receivers, collect)
		return []shardResult{result}
	}

	results := make([]shardResult, workers)
	var wg sync.WaitGroup
	chunk := (len(receivers) + workers - 1) / workers
	for i := 0; i < workers; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(receivers) {
			hi = len(receivers)
		}
		wg.Add(1)
		go func(slot int, shard []*Receiver) {
			defer wg.Done()
			results[slot] = s.traceShard(samples, shard, collect)
		}(i, receivers[lo:hi])
	}
	wg.Wait()
	return results
}

func (s *System) traceShard(samples []SourceSample, receivers []*Receiver, collect bool) shardResult {
	worker := rayWorker{sys: s}
	var result shardResult
	for _, rcv := range receivers {
		total := 0.0
		for _, src := range samples {
			ray := worker.trace(src, rcv, collect)
			if ray == nil {
				continue
			}
			result.traced++
			if ray.ReachedDestination {
				total += ray.Rads
				result.reached++
			}
			if collect {
				result.rays = append(result.rays, *ray)
			}
		}
		// The only externally observable write, exactly once per tick.
		rcv.Exposure = total
	}
	result.tiles = worker.tilesVisited
	return result
}
