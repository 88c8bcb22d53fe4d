package radiation

// QuantityFunc resolves how many stacked items a source entity represents.
// The pass multiplies base intensity by the returned quantity. A nil func or
// a non-positive result means the source counts as a single item.
type QuantityFunc func(sourceID string) float64

// SourceSample is one source's per-tick snapshot: position resolved and
// intensity already scaled by the external quantity lookup.
type SourceSample struct {
	ID        string
	MapID     string
	GridID    string
	Position  Vec2
	Local     Vec2
	Intensity float64
	Slope     float64
}

// CollectSources snapshots every source exactly once for the tick. Pure:
// no world state is touched beyond reading the inputs.
func CollectSources(sources []Source, quantity QuantityFunc) []SourceSample {
	if len(sources) == 0 {
		return nil
	}
	samples := make([]SourceSample, 0, len(sources))
	for _, src := range sources {
		intensity := src.Intensity
		if intensity < 0 {
			intensity = 0
		}
		if quantity != nil {
			if q := quantity(src.ID); q > 0 {
				intensity *= q
			}
		}
		samples = append(samples, SourceSample{
			ID:        src.ID,
			MapID:     src.MapID,
			GridID:    src.GridID,
			Position:  src.Position,
			Local:     src.Local,
			Intensity: intensity,
			Slope:     src.Slope,
		})
	}
	return samples
}
