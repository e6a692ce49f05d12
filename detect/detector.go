// PresenceDetector turns a stream of smoothed distance samples into
// discrete presence events.
//
// # State machine
//
// The detector cycles through three states for the lifetime of the
// process; there is no terminal state:
//
//   - StateIdle: no object in the zone, armed for a new trigger.
//   - StatePresent: an object is within the threshold distance.
//   - StateAwaitingRearm: the object has left, but the zone must be
//     observed clear beyond threshold+hysteresis before the detector
//     arms itself again.
//
// Entering StatePresent emits EventEntered, leaving it emits
// EventLeft. The rearm state prevents two failure modes seen with a
// naive boolean: a partial retreat re-triggering playback, and
// continuous re-triggering while someone lingers exactly at the
// boundary. Rearming is purely distance-driven, no timers are
// involved, so the same continuous approach can never emit two
// EventEntered without an intervening EventLeft.
//
// A tick without a usable reading (sensor timeout, out of range) must
// simply not call Observe; the state is sticky across missed readings.
package detect

// State is the detector's position in the presence cycle.
type State int

const (
	StateIdle State = iota
	StatePresent
	StateAwaitingRearm
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePresent:
		return "PRESENT"
	case StateAwaitingRearm:
		return "AWAITING_REARM"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted by Observe when the presence state changes.
type Event int

const (
	EventNone Event = iota
	EventEntered
	EventLeft
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "NONE"
	case EventEntered:
		return "ENTERED"
	case EventLeft:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// PresenceDetector holds the detection tuning and the current state.
// It must only ever be driven from a single goroutine so transitions
// are processed in acquisition order.
type PresenceDetector struct {
	thresholdCm  float64
	hysteresisCm float64
	state        State
}

// NewPresenceDetector creates a detector in StateIdle. thresholdCm is
// the distance below which an object counts as present, hysteresisCm
// the margin beyond the threshold the zone must clear before rearming.
func NewPresenceDetector(thresholdCm, hysteresisCm float64) *PresenceDetector {
	return &PresenceDetector{
		thresholdCm:  thresholdCm,
		hysteresisCm: hysteresisCm,
	}
}

// Observe consumes one smoothed distance sample and returns the event
// this sample caused, or EventNone.
func (d *PresenceDetector) Observe(smoothedCm float64) Event {
	switch d.state {
	case StateIdle:
		if smoothedCm <= d.thresholdCm {
			d.state = StatePresent
			return EventEntered
		}
	case StatePresent:
		if smoothedCm > d.thresholdCm {
			d.state = StateAwaitingRearm
			return EventLeft
		}
	case StateAwaitingRearm:
		if smoothedCm > d.thresholdCm+d.hysteresisCm {
			// Zone is confirmed clear, arm for the next approach.
			d.state = StateIdle
		}
	}
	return EventNone
}

// State returns the current presence state.
func (d *PresenceDetector) State() State {
	return d.state
}

// Retune changes threshold and hysteresis without touching the current
// state, so the detector can be adjusted while an episode is running.
func (d *PresenceDetector) Retune(thresholdCm, hysteresisCm float64) {
	d.thresholdCm = thresholdCm
	d.hysteresisCm = hysteresisCm
}

// Threshold returns the configured trigger distance.
func (d *PresenceDetector) Threshold() float64 {
	return d.thresholdCm
}

// Hysteresis returns the configured rearm margin.
func (d *PresenceDetector) Hysteresis() float64 {
	return d.hysteresisCm
}
