package embedding

import (
	"github.com/ayusman/mudra/internal/landmark"
)

// slot is one window position: the normalized frame when it was usable,
// nil otherwise. Unusable frames occupy a slot anyway so the window
// keeps real temporal alignment and the quality gate sees them.
type slot struct {
	frame  *landmark.Frame
	usable bool
}

// Window is the sliding buffer of the most recent frames, reduced to
// one embedding whenever its quality gate passes. It is a true sliding
// window: pushing at capacity evicts the oldest frame and the embedding
// is re-evaluated on every push, never batch-reset.
//
// A Window is owned by a single pipeline goroutine and is not safe for
// concurrent use.
type Window struct {
	capacity   int
	minQuality float64
	slots      []slot
}

// NewWindow returns an empty window of the given capacity. minQuality
// is the fraction of usable frames (of capacity) required before an
// embedding is produced.
func NewWindow(capacity int, minQuality float64) *Window {
	return &Window{
		capacity:   capacity,
		minQuality: minQuality,
		slots:      make([]slot, 0, capacity),
	}
}

// Push appends one frame observation, evicting the oldest at capacity.
// frame must be nil when usable is false; an unusable observation
// carries no coordinates, only its place in time.
func (w *Window) Push(frame *landmark.Frame, usable bool) {
	s := slot{frame: frame, usable: usable}
	if !usable {
		s.frame = nil
	}
	if len(w.slots) >= w.capacity {
		w.slots = append(w.slots[1:], s)
		return
	}
	w.slots = append(w.slots, s)
}

// Len returns the number of frames currently held.
func (w *Window) Len() int { return len(w.slots) }

// Capacity returns the configured window length.
func (w *Window) Capacity() int { return w.capacity }

// UsableCount returns how many held frames passed quality filtering.
func (w *Window) UsableCount() int {
	n := 0
	for _, s := range w.slots {
		if s.usable {
			n++
		}
	}
	return n
}

// Ready reports whether the window is full and enough of its frames are
// usable to clear the quality gate.
func (w *Window) Ready() bool {
	if len(w.slots) < w.capacity {
		return false
	}
	need := w.minQuality * float64(w.capacity)
	return float64(w.UsableCount()) >= need
}

// Embedding reduces the window to one vector by masked temporal
// averaging over its usable frames. When the quality gate does not
// pass, it reports not ready instead of producing a degenerate
// embedding from too little data.
func (w *Window) Embedding() (Vector, []int, bool) {
	if !w.Ready() {
		return nil, nil, false
	}

	frames := make([]*landmark.Frame, 0, len(w.slots))
	for _, s := range w.slots {
		if s.usable {
			frames = append(frames, s.frame)
		}
	}

	vec, degenerate := MaskedMean(frames)
	return vec, degenerate, true
}

// Reset discards every held frame.
func (w *Window) Reset() {
	w.slots = w.slots[:0]
}
