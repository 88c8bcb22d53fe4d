package radiation

// Observer receives traversal traces from a pass. The pass snapshots the
// observer once per tick; with the no-op observer installed the hot path
// allocates nothing for debug bookkeeping.
type Observer interface {
	// Active reports whether the observer wants per-ray detail. When false
	// rays are traced without blocker collection.
	Active() bool
	// ObserveRay is called once per traced ray that was not discarded by the
	// map, distance, or falloff checks. The ray must not be retained past the
	// call; observers copy what they need.
	ObserveRay(ray *Ray)
	// ObservePass is called once after the tick's pass completes.
	ObservePass(report Report)
}

// NopObserver is the default observer: never active, records nothing.
type NopObserver struct{}

// Active implements Observer.
func (NopObserver) Active() bool { return false }

// ObserveRay implements Observer.
func (NopObserver) ObserveRay(*Ray) {}

// ObservePass implements Observer.
func (NopObserver) ObservePass(Report) {}

var _ Observer = NopObserver{}
