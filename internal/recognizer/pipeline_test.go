package recognizer

import (
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/registry"
)

func testPipeline(windowSize int, cooldown time.Duration) *Pipeline {
	return NewPipeline(Config{
		Language:            "asl",
		VisibilityThreshold: 0.5,
		WindowSize:          windowSize,
		MinWindowQuality:    0.7,
		AbsThreshold:        0.80,
		GapThreshold:        0.15,
	}, cooldown)
}

func TestPipeline_EmitsEventOnVerifiedWindow(t *testing.T) {
	frame := trackedFrame(t, 0.9)
	ref := referenceFor(t, frame)
	snap := registry.NewSnapshot([]registry.Entry{
		{ConceptID: "C_GREETING_001", Language: "asl", Name: "hello", Vector: ref},
		{ConceptID: "C_FAREWELL_001", Language: "asl", Name: "goodbye", Vector: negated(ref)},
	})

	p := testPipeline(3, 2*time.Second)
	now := fakeNow(p.debouncer)

	var event *Event
	for i := 0; i < 3; i++ {
		var err error
		_, event, err = p.Process(snap, frame)
		if err != nil {
			t.Fatalf("Process(%d) error = %v", i, err)
		}
		if i < 2 && event != nil {
			t.Fatalf("event emitted after %d of 3 frames", i+1)
		}
	}

	if event == nil {
		t.Fatal("no event after a verified full window")
	}
	if event.ID == "" {
		t.Error("event ID is empty")
	}
	if event.ConceptID != "C_GREETING_001" {
		t.Errorf("event concept = %s, want C_GREETING_001", event.ConceptID)
	}
	if event.Name != "hello" {
		t.Errorf("event name = %s, want hello", event.Name)
	}
	if event.Language != "asl" {
		t.Errorf("event language = %s, want asl", event.Language)
	}
	if event.Band != BandHigh {
		t.Errorf("event band = %s, want high for ~1.0 similarity", event.Band)
	}
	if !event.Timestamp.Equal(*now) {
		t.Errorf("event timestamp = %v, want the emission time %v", event.Timestamp, *now)
	}
	if p.State() != StateEmitted {
		t.Errorf("state = %v after emission, want emitted", p.State())
	}
}

func TestPipeline_CooldownSuppressesFollowUp(t *testing.T) {
	frame := trackedFrame(t, 0.9)
	snap := registry.NewSnapshot([]registry.Entry{
		{ConceptID: "C_GREETING_001", Language: "asl", Name: "hello", Vector: referenceFor(t, frame)},
	})

	p := testPipeline(2, 2*time.Second)
	now := fakeNow(p.debouncer)

	var event *Event
	for i := 0; i < 2; i++ {
		_, event, _ = p.Process(snap, frame)
	}
	if event == nil {
		t.Fatal("no event after a verified full window")
	}

	// The gesture is sustained: results stay verified but nothing
	// emits until the cooldown lapses.
	*now = now.Add(500 * time.Millisecond)
	res, event, err := p.Process(snap, frame)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if event != nil {
		t.Error("event emitted inside the cooldown")
	}
	if res.Status != registry.StatusVerified {
		t.Errorf("status = %v during cooldown, want verified", res.Status)
	}
	if p.State() != StateCooldown {
		t.Errorf("state = %v, want cooldown", p.State())
	}
	if p.CooldownRemaining() <= 0 {
		t.Error("CooldownRemaining() = 0 during an active cooldown")
	}

	*now = now.Add(2 * time.Second)
	if _, event, _ = p.Process(snap, frame); event == nil {
		t.Error("no event after the cooldown elapsed")
	}
}

func TestPipeline_ResetCancelsCooldownAndWindow(t *testing.T) {
	frame := trackedFrame(t, 0.9)
	snap := registry.NewSnapshot([]registry.Entry{
		{ConceptID: "C_GREETING_001", Language: "asl", Name: "hello", Vector: referenceFor(t, frame)},
	})

	p := testPipeline(2, time.Hour)
	fakeNow(p.debouncer)

	var event *Event
	for i := 0; i < 2; i++ {
		_, event, _ = p.Process(snap, frame)
	}
	if event == nil {
		t.Fatal("no event after a verified full window")
	}

	p.Reset()

	if p.State() != StateAccumulating {
		t.Errorf("state = %v after reset, want accumulating", p.State())
	}
	if p.CooldownRemaining() != 0 {
		t.Errorf("CooldownRemaining() = %v after reset, want 0", p.CooldownRemaining())
	}

	// The window was emptied, so one frame is not enough again.
	res, event, _ := p.Process(snap, frame)
	if event != nil {
		t.Error("event emitted from a half-filled window after reset")
	}
	if res.WindowFill != 1 {
		t.Errorf("WindowFill = %d after reset plus one frame, want 1", res.WindowFill)
	}

	if _, event, _ = p.Process(snap, frame); event == nil {
		t.Error("no event after refilling the window, reset should cancel the cooldown")
	}
}

func TestPipeline_MatchErrorPropagates(t *testing.T) {
	frame := trackedFrame(t, 0.9)
	snap := registry.NewSnapshot([]registry.Entry{
		{ConceptID: "C_BROKEN_001", Language: "asl", Vector: referenceFor(t, frame)[:10]},
	})

	p := testPipeline(1, time.Second)

	_, event, err := p.Process(snap, frame)
	if err == nil {
		t.Fatal("expected an error for a registry vector of the wrong length")
	}
	if event != nil {
		t.Error("event emitted alongside an error")
	}
}

func TestPipeline_Accessors(t *testing.T) {
	p := testPipeline(30, 2*time.Second)

	if p.Language() != "asl" {
		t.Errorf("Language() = %s, want asl", p.Language())
	}
	if p.WindowCapacity() != 30 {
		t.Errorf("WindowCapacity() = %d, want 30", p.WindowCapacity())
	}
	if p.State() != StateAccumulating {
		t.Errorf("initial state = %v, want accumulating", p.State())
	}
	if p.CooldownRemaining() != 0 {
		t.Errorf("initial CooldownRemaining() = %v, want 0", p.CooldownRemaining())
	}
}
