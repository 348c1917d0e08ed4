// Package app runs the daemon core: a capture producer, a recognize
// loop, and the registry snapshot they share.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/registry"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the wiring of one daemon instance.
type Config struct {
	Recognition config.Recognition
	Capture     config.Capture
	Detector    config.Detector
	Store       *store.Store
	Logger      *slog.Logger
}

// Status is a point-in-time view of the daemon, served over the API
// and pushed to status sinks after every processed frame. Candidate
// fields are only set while the window is ready.
type Status struct {
	Enabled              bool              `json:"enabled"`
	State                recognizer.State  `json:"state"`
	Language             string            `json:"language"`
	WindowFill           int               `json:"window_fill"`
	WindowCapacity       int               `json:"window_capacity"`
	WindowUsable         int               `json:"window_usable"`
	BestConceptID        string            `json:"best_concept_id,omitempty"`
	BestName             string            `json:"best_name,omitempty"`
	BestSimilarity       float64           `json:"best_similarity"`
	SecondBestSimilarity float64           `json:"second_best_similarity"`
	Verification         registry.Status   `json:"verification,omitempty"`
	Band                 recognizer.Band   `json:"band,omitempty"`
	CooldownRemainingMS  int64             `json:"cooldown_remaining_ms"`
	Concepts             int               `json:"concepts"`
	LastEvent            *recognizer.Event `json:"last_event,omitempty"`
}

// App orchestrates capture, detection, and recognition. A producer
// goroutine owns camera reads, motion gating, and holistic detection;
// the recognize goroutine owns the pipeline. The two meet in a
// capacity-one mailbox where a fresh frame replaces a stale one, so
// capture never blocks and nothing queues unboundedly.
type App struct {
	config   Config
	logger   *slog.Logger
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	pipeline *recognizer.Pipeline

	snapshot  atomic.Pointer[registry.Snapshot]
	enabled   atomic.Bool
	status    atomic.Pointer[Status]
	lastEvent atomic.Pointer[recognizer.Event]

	mu     sync.Mutex // guards the Start/Stop lifecycle
	stopCh chan struct{}
	wg     sync.WaitGroup

	frames  chan *landmark.Frame
	resetCh chan struct{}

	sinkMu   sync.RWMutex
	onEvent  []func(recognizer.Event)
	onStatus []func(Status)
}

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		config: cfg,
		logger: logger,
		camera: capture.NewCamera(cfg.Capture.DeviceID),
		motion: capture.NewMotionDetector(cfg.Capture.MotionThreshold),
		pipeline: recognizer.NewPipeline(recognizer.Config{
			Language:            cfg.Recognition.Language,
			VisibilityThreshold: cfg.Recognition.VisibilityThreshold,
			WindowSize:          cfg.Recognition.WindowSize,
			MinWindowQuality:    cfg.Recognition.MinWindowQuality,
			AbsThreshold:        cfg.Recognition.SimilarityThreshold,
			GapThreshold:        cfg.Recognition.GapThreshold,
			Logger:              logger,
		}, cfg.Recognition.Cooldown()),
		frames:  make(chan *landmark.Frame, 1),
		resetCh: make(chan struct{}, 1),
	}
	a.snapshot.Store(registry.NewSnapshot(nil))
	a.enabled.Store(true)

	// Try the holistic bridge first, fall back to the mock detector
	dcfg := detector.DefaultConfig()
	dcfg.Script = cfg.Detector.Script
	dcfg.Python = cfg.Detector.Python
	if hd, err := detector.NewHolisticDetector(dcfg); err == nil {
		a.detector = hd
		logger.Info("using holistic landmark detection")
	} else {
		logger.Warn("holistic detector unavailable, using mock detector", "error", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or pauses recognition. Pausing also resets the
// window so a later resume cannot splice two signing sessions into one
// embedding.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) == enabled {
		return
	}
	if enabled {
		a.logger.Info("recognition enabled")
		return
	}
	a.Reset()
	a.logger.Info("recognition paused")
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector sets the landmark detector implementation to use.
// It must be called before Start.
func (a *App) SetDetector(d detector.Detector) {
	a.detector = d
}

// SetCamera sets the camera implementation to use.
// It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.camera = c
}

// OnEvent registers a sink invoked for every emitted event.
func (a *App) OnEvent(fn func(recognizer.Event)) {
	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()
	a.onEvent = append(a.onEvent, fn)
}

// OnStatus registers a sink invoked after every processed frame.
func (a *App) OnStatus(fn func(Status)) {
	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()
	a.onStatus = append(a.onStatus, fn)
}

// Reload builds a fresh registry snapshot from the store and swaps it
// in. The pipeline picks it up on the next frame; entries already
// being evaluated are never mutated in place.
func (a *App) Reload() error {
	if a.config.Store == nil {
		return nil
	}

	snap, err := a.config.Store.Snapshot(a.config.Recognition.Language)
	if err != nil {
		return fmt.Errorf("load registry snapshot: %w", err)
	}

	a.snapshot.Store(snap)
	a.logger.Info("registry snapshot loaded",
		"language", a.config.Recognition.Language, "concepts", snap.Len())
	return nil
}

// Reset clears the recognition window and cancels any active
// cooldown. While the pipeline is running the reset is handed to the
// recognize goroutine; otherwise it is applied directly.
func (a *App) Reset() {
	a.mu.Lock()
	running := a.stopCh != nil
	a.mu.Unlock()

	if running {
		select {
		case a.resetCh <- struct{}{}:
		default:
		}
		return
	}

	a.pipeline.Reset()
	a.publish(recognizer.Result{}, nil)
}

// Status returns the most recently published daemon status.
func (a *App) Status() Status {
	if st := a.status.Load(); st != nil {
		out := *st
		out.Enabled = a.enabled.Load()
		out.Concepts = a.snapshot.Load().Len()
		return out
	}
	return Status{
		Enabled:        a.enabled.Load(),
		State:          recognizer.StateAccumulating,
		Language:       a.config.Recognition.Language,
		WindowCapacity: a.config.Recognition.WindowSize,
		Concepts:       a.snapshot.Load().Len(),
	}
}

// Process pushes one landmark frame through the recognition pipeline,
// publishes the resulting status, and fires the event sinks on an
// emission. It is the body of the recognize loop, exported so tests
// can drive the pipeline without a camera.
func (a *App) Process(frame *landmark.Frame) (recognizer.Result, *recognizer.Event, error) {
	res, event, err := a.pipeline.Process(a.snapshot.Load(), frame)
	if err != nil {
		return recognizer.Result{}, nil, err
	}

	if event != nil {
		a.lastEvent.Store(event)
		a.logger.Info("concept recognized",
			"concept", event.ConceptID,
			"name", event.Name,
			"similarity", event.Similarity,
			"band", event.Band)
	}

	a.publish(res, event)
	return res, event, nil
}

// publish stores the status derived from one result and notifies the
// sinks. Only the goroutine driving the pipeline may call it.
func (a *App) publish(res recognizer.Result, event *recognizer.Event) {
	status := a.buildStatus(res)
	a.status.Store(&status)

	a.sinkMu.RLock()
	defer a.sinkMu.RUnlock()
	if event != nil {
		for _, fn := range a.onEvent {
			fn(*event)
		}
	}
	for _, fn := range a.onStatus {
		fn(status)
	}
}

func (a *App) buildStatus(res recognizer.Result) Status {
	st := Status{
		Enabled:             a.enabled.Load(),
		State:               a.pipeline.State(),
		Language:            a.pipeline.Language(),
		WindowFill:          res.WindowFill,
		WindowCapacity:      a.pipeline.WindowCapacity(),
		WindowUsable:        res.WindowUsable,
		CooldownRemainingMS: a.pipeline.CooldownRemaining().Milliseconds(),
		Concepts:            a.snapshot.Load().Len(),
		LastEvent:           a.lastEvent.Load(),
	}
	if res.WindowReady {
		st.BestConceptID = res.BestConceptID
		st.BestName = res.BestName
		st.BestSimilarity = res.BestSimilarity
		st.SecondBestSimilarity = res.SecondBestSimilarity
		st.Verification = res.Status
		st.Band = recognizer.BandFor(res.BestSimilarity)
	}
	return st
}

// Start opens the camera and launches the producer and recognize
// goroutines. Starting an already-running app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.config.Capture.ActiveFPS)

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.produce(a.stopCh)
	go a.recognize(a.stopCh)

	a.logger.Info("recognition pipeline started")
	return nil
}

// Stop halts both goroutines and releases the camera, motion
// detector, and landmark detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("close camera", "error", err)
	}
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Warn("close detector", "error", err)
		}
	}

	a.logger.Info("recognition pipeline stopped")
}

// Camera returns the camera instance, for the MJPEG preview handler.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
