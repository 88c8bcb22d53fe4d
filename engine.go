package server

import (
	"radfield/server/internal/radiation"
	"radfield/server/internal/sim"
)

// Engine adapts the radiation system to the fixed-timestep loop. The world
// snapshot it owns is rebuilt only when the scenario is reloaded; receivers
// inside it accumulate exposure across ticks by overwrite, not append.
type Engine struct {
	world  radiation.World
	system *radiation.System
	deps   sim.Deps
}

// NewEngine pairs a built world with its pass system.
func NewEngine(world radiation.World, system *radiation.System, deps sim.Deps) *Engine {
	return &Engine{world: world, system: system, deps: deps}
}

// Step runs one exposure pass.
func (e *Engine) Step(ctx sim.TickContext) radiation.Report {
	return e.system.RunTick(ctx.Tick, e.world)
}

// Deps exposes the shared infrastructure for the loop.
func (e *Engine) Deps() sim.Deps {
	return e.deps
}

// System returns the pass system, for observer installation.
func (e *Engine) System() *radiation.System {
	return e.system
}

// World returns the engine's world snapshot.
func (e *Engine) World() radiation.World {
	return e.world
}
