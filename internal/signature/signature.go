// Package signature reads recorded sign instances and builds reference
// embeddings for the concept registry.
package signature

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ayusman/mudra/internal/landmark"
)

// File is one recorded instance of a sign: a sequence of landmark
// frames captured from a single signer.
type File struct {
	Gloss    string        `json:"gloss"`
	Language string        `json:"language"`
	FPS      float64       `json:"fps"`
	Frames   []FrameRecord `json:"frames"`
}

// FrameRecord holds one frame's landmark groups as raw coordinate rows.
// Each row is [x, y, z, confidence] or [x, y, z]; a three-element row
// infers confidence 1 when any coordinate is non-zero and 0 otherwise,
// which matches recordings that write zeros for undetected groups.
// An empty group means the group was not tracked in this frame.
type FrameRecord struct {
	Pose      [][]float64 `json:"pose"`
	LeftHand  [][]float64 `json:"left_hand"`
	RightHand [][]float64 `json:"right_hand"`
	Face      [][]float64 `json:"face"`
}

// Read loads and parses a signature file from disk.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("signature %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a signature file and validates its structure.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	if f.Gloss == "" {
		return nil, errors.New("signature has no gloss")
	}
	if f.Language == "" {
		return nil, errors.New("signature has no language")
	}
	if len(f.Frames) == 0 {
		return nil, errors.New("signature has no frames")
	}

	for i, frame := range f.Frames {
		if err := frame.validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return &f, nil
}

// LandmarkFrames converts the recording into landmark frames, one per
// frame record, with untracked groups marked missing.
func (f *File) LandmarkFrames() ([]*landmark.Frame, error) {
	frames := make([]*landmark.Frame, 0, len(f.Frames))
	for i, rec := range f.Frames {
		groups := make(map[string][]landmark.Point)
		for name, rows := range rec.groups() {
			if len(rows) == 0 {
				continue
			}
			groups[name] = rowsToPoints(rows)
		}

		frame, err := landmark.NewFrame(groups)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (r FrameRecord) groups() map[string][][]float64 {
	return map[string][][]float64{
		landmark.GroupPose:      r.Pose,
		landmark.GroupLeftHand:  r.LeftHand,
		landmark.GroupRightHand: r.RightHand,
		landmark.GroupFace:      r.Face,
	}
}

func (r FrameRecord) validate() error {
	for name, rows := range r.groups() {
		if len(rows) == 0 {
			continue
		}
		if want := landmark.GroupSize(name); len(rows) != want {
			return fmt.Errorf("group %s has %d points, want %d", name, len(rows), want)
		}
		for i, row := range rows {
			if len(row) != 3 && len(row) != 4 {
				return fmt.Errorf("group %s point %d has %d values, want 3 or 4", name, i, len(row))
			}
		}
	}
	return nil
}

func rowsToPoints(rows [][]float64) []landmark.Point {
	points := make([]landmark.Point, len(rows))
	for i, row := range rows {
		p := landmark.Point{X: row[0], Y: row[1], Z: row[2]}
		if len(row) == 4 {
			p.Confidence = row[3]
		} else if row[0] != 0 || row[1] != 0 || row[2] != 0 {
			p.Confidence = 1
		}
		points[i] = p
	}
	return points
}

// NormalizeGloss folds a gloss into a stable concept identifier:
// NFKC-normalized, lowercased, with whitespace runs collapsed to a
// single underscore.
func NormalizeGloss(gloss string) string {
	folded := norm.NFKC.String(gloss)
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.Fields(folded), "_")
}
