package recognizer

import (
	"time"

	"github.com/ayusman/mudra/internal/registry"
)

// State of the debounce controller.
type State string

const (
	// StateAccumulating: the window is not yet full or not yet past
	// its quality gate.
	StateAccumulating State = "accumulating"

	// StateEvaluating: results are computed every frame and an
	// emission is possible.
	StateEvaluating State = "evaluating"

	// StateEmitted: the last observed result fired an event.
	StateEmitted State = "emitted"

	// StateCooldown: recognition keeps running but emissions are
	// suppressed until the cooldown elapses.
	StateCooldown State = "cooldown"
)

// Debouncer turns the per-frame result stream into at most one emitted
// event per cooldown period. Recognition itself is never paused; only
// the act of emitting is gated, so observers keep a live confidence
// stream while duplicates of a sustained gesture are suppressed.
//
// The cooldown is one global timer: after any emission, every concept
// is suppressed until it lapses. A Debouncer is owned by a single
// pipeline goroutine.
type Debouncer struct {
	cooldown time.Duration
	state    State
	lastEmit time.Time
	now      func() time.Time
}

// NewDebouncer returns a controller in the accumulating state.
func NewDebouncer(cooldown time.Duration) *Debouncer {
	return &Debouncer{
		cooldown: cooldown,
		state:    StateAccumulating,
		now:      time.Now,
	}
}

// Observe advances the state machine with one result and reports
// whether this result must be emitted. At most one Observe call per
// cooldown period returns true.
func (d *Debouncer) Observe(res Result) bool {
	if !res.WindowReady {
		d.state = StateAccumulating
		return false
	}

	if d.inCooldown() {
		d.state = StateCooldown
		return false
	}

	if res.Status == registry.StatusVerified {
		d.state = StateEmitted
		d.lastEmit = d.now()
		return true
	}

	d.state = StateEvaluating
	return false
}

// State returns the controller's current state.
func (d *Debouncer) State() State { return d.state }

// CooldownRemaining returns how long emissions stay suppressed, zero
// when no cooldown is active.
func (d *Debouncer) CooldownRemaining() time.Duration {
	if d.lastEmit.IsZero() {
		return 0
	}
	remaining := d.cooldown - d.now().Sub(d.lastEmit)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset returns to the accumulating state and cancels any active
// cooldown, so the next verified result may emit immediately. It backs
// the pipeline's external reset input; callers clear the window in the
// same breath.
func (d *Debouncer) Reset() {
	d.state = StateAccumulating
	d.lastEmit = time.Time{}
}

// inCooldown reports whether the last emission is still recent enough
// to suppress another one. Uses the monotonic reading carried by
// time.Time, so wall-clock adjustments cannot stretch or shrink it.
func (d *Debouncer) inCooldown() bool {
	return !d.lastEmit.IsZero() && d.now().Sub(d.lastEmit) < d.cooldown
}
