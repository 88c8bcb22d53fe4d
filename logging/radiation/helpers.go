package radiation

import (
	"context"

	"radfield/server/logging"
)

const (
	// EventPassCompleted is emitted once per tick after the exposure pass
	// finishes and receivers were updated.
	EventPassCompleted logging.EventType = "radiation.pass_completed"
	// EventGridDegenerate is emitted the first time a grid with unusable
	// geometry is encountered; the grid is treated as transparent.
	EventGridDegenerate logging.EventType = "radiation.grid_degenerate"
	// EventObserverChanged is emitted when the debug observer is attached or
	// detached.
	EventObserverChanged logging.EventType = "radiation.observer_changed"
)

// PassCompletedPayload summarizes one pass for log consumers.
type PassCompletedPayload struct {
	ElapsedMs     float64 `json:"elapsedMs"`
	SourceCount   int     `json:"sourceCount"`
	ReceiverCount int     `json:"receiverCount"`
	RaysTraced    int     `json:"raysTraced"`
	RaysReached   int     `json:"raysReached"`
}

// PassCompleted publishes the per-tick completion event.
func PassCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload PassCompletedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPassCompleted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRadiation,
		Payload:  payload,
	})
}

// GridDegenerate publishes a warning about a grid the pass cannot cast
// against. Emitted once per grid id.
func GridDegenerate(ctx context.Context, pub logging.Publisher, tick uint64, gridID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGridDegenerate,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: gridID, Kind: logging.EntityKindGrid},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRadiation,
	})
}

// ObserverChanged publishes an attach/detach transition of the debug observer.
func ObserverChanged(ctx context.Context, pub logging.Publisher, tick uint64, attached bool, subscribers int) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventObserverChanged,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
	}
	event = event.WithExtra("attached", attached)
	event = event.WithExtra("subscribers", subscribers)
	pub.Publish(ctx, event)
}
