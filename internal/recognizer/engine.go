package recognizer

import (
	"fmt"
	"log/slog"

	"github.com/ayusman/mudra/internal/embedding"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/registry"
)

// Config carries the tunable parameters of one engine instance.
type Config struct {
	Language            string
	VisibilityThreshold float64
	WindowSize          int
	MinWindowQuality    float64
	AbsThreshold        float64
	GapThreshold        float64
	Logger              *slog.Logger
}

// Engine runs the per-frame recognition pipeline: quality filter,
// normalization, sliding-window aggregation, registry matching, and
// verification. One frame in, one Result out, synchronously.
//
// The engine owns its window and must be driven from a single
// goroutine; the registry snapshot is passed per call so callers can
// swap snapshots atomically between frames.
type Engine struct {
	language string
	filter   *landmark.Filter
	window   *embedding.Window
	gate     registry.Gate
	logger   *slog.Logger
}

// New builds an engine from its configuration.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		language: cfg.Language,
		filter:   landmark.NewFilter(cfg.VisibilityThreshold),
		window:   embedding.NewWindow(cfg.WindowSize, cfg.MinWindowQuality),
		gate:     registry.Gate{Abs: cfg.AbsThreshold, Gap: cfg.GapThreshold},
		logger:   logger,
	}
}

// Language returns the scope the engine matches against.
func (e *Engine) Language() string { return e.language }

// Process pushes one raw frame through the pipeline and evaluates the
// window against the snapshot.
//
// Degraded input (masked points, unsound frames, a window below its
// quality gate) is the expected steady state and shows up in the
// Result, never as an error. The only error path is an embedding
// length mismatch against the registry, which indicates a registry
// built for a different layout.
func (e *Engine) Process(snap *registry.Snapshot, frame *landmark.Frame) (Result, error) {
	filtered, verdict := e.filter.Apply(frame)

	usable := verdict.Usable
	var normalized *landmark.Frame
	if usable {
		var err error
		normalized, err = filtered.Normalize()
		if err != nil {
			// One more unusable frame; the window's quality gate
			// absorbs it.
			usable = false
			normalized = nil
		}
	}
	e.window.Push(normalized, usable)

	res := Result{
		WindowFill:   e.window.Len(),
		WindowUsable: e.window.UsableCount(),
	}

	vec, degenerate, ready := e.window.Embedding()
	if !ready {
		return res, nil
	}
	res.WindowReady = true

	if len(degenerate) > 0 {
		e.logger.Debug("embedding has degenerate positions",
			"count", len(degenerate), "window", e.window.Capacity())
	}

	candidates, err := snap.Match(e.language, vec)
	if err != nil {
		return Result{}, fmt.Errorf("match window embedding: %w", err)
	}

	status, best, second := e.gate.ClassifyCandidates(candidates)
	res.Status = status
	res.BestSimilarity = best
	res.SecondBestSimilarity = second
	if len(candidates) > 0 {
		res.BestConceptID = candidates[0].ConceptID
		res.BestName = candidates[0].Name
	}
	return res, nil
}

// Reset empties the window. Paired with Debouncer.Reset it implements
// the pipeline's external reset input.
func (e *Engine) Reset() {
	e.window.Reset()
}

// WindowCapacity returns the configured window length.
func (e *Engine) WindowCapacity() int { return e.window.Capacity() }
