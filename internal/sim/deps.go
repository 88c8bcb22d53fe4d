package sim

import (
	"radfield/server/internal/telemetry"
	"radfield/server/logging"
)

// Deps carries shared infrastructure dependencies required by the simulation loop.
type Deps struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Clock   logging.Clock
}
