package recognizer

import (
	"time"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/registry"
)

// Pipeline bundles an Engine with its Debouncer: frames go in, a
// Result comes out every time, and an Event comes out at most once per
// cooldown period. Like the engine, it must be driven from a single
// goroutine.
type Pipeline struct {
	engine    *Engine
	debouncer *Debouncer
}

// NewPipeline builds a pipeline from the engine configuration and the
// emission cooldown.
func NewPipeline(cfg Config, cooldown time.Duration) *Pipeline {
	return &Pipeline{
		engine:    New(cfg),
		debouncer: NewDebouncer(cooldown),
	}
}

// Process runs one frame through the engine and feeds the result to
// the debounce controller. The returned Event is non-nil exactly when
// this frame's result emits.
func (p *Pipeline) Process(snap *registry.Snapshot, frame *landmark.Frame) (Result, *Event, error) {
	res, err := p.engine.Process(snap, frame)
	if err != nil {
		return Result{}, nil, err
	}

	if !p.debouncer.Observe(res) {
		return res, nil, nil
	}

	event := newEvent(res, p.engine.Language(), p.debouncer.lastEmit)
	return res, &event, nil
}

// Reset empties the window and cancels any active cooldown, so the
// next verified window may emit immediately.
func (p *Pipeline) Reset() {
	p.engine.Reset()
	p.debouncer.Reset()
}

// Language returns the scope the pipeline matches against.
func (p *Pipeline) Language() string { return p.engine.Language() }

// State returns the debounce controller's current state.
func (p *Pipeline) State() State { return p.debouncer.State() }

// CooldownRemaining returns how long emissions stay suppressed, zero
// when no cooldown is active.
func (p *Pipeline) CooldownRemaining() time.Duration {
	return p.debouncer.CooldownRemaining()
}

// WindowCapacity returns the configured window length.
func (p *Pipeline) WindowCapacity() int { return p.engine.WindowCapacity() }
