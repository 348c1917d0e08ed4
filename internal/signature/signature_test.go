package signature

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/landmark"
)

const poseOnlyRecording = `{
	"gloss": "hello",
	"language": "asl",
	"fps": 15,
	"frames": [
		{
			"pose": [
				[0.40, 0.40, 0.00, 0.9],
				[0.60, 0.40, 0.00, 0.9],
				[0.35, 0.60, 0.01, 0.9],
				[0.65, 0.60, 0.01, 0.9],
				[0.30, 0.80, 0.02, 0.9],
				[0.70, 0.80, 0.02, 0.9]
			],
			"face": [
				[0.45, 0.20, 0.00, 0.8],
				[0.48, 0.19, 0.00, 0.8],
				[0.52, 0.19, 0.00, 0.8],
				[0.55, 0.20, 0.00, 0.8]
			]
		}
	]
}`

func TestParse_ReadsRecording(t *testing.T) {
	f, err := Parse([]byte(poseOnlyRecording))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if f.Gloss != "hello" {
		t.Errorf("gloss = %q, want hello", f.Gloss)
	}
	if f.Language != "asl" {
		t.Errorf("language = %q, want asl", f.Language)
	}
	if f.FPS != 15 {
		t.Errorf("fps = %v, want 15", f.FPS)
	}
	if len(f.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(f.Frames))
	}

	frames, err := f.LandmarkFrames()
	if err != nil {
		t.Fatalf("LandmarkFrames() error = %v", err)
	}

	frame := frames[0]
	if p := frame.Point(landmark.GroupPose, landmark.RightShoulder); p.X != 0.60 || p.Confidence != 0.9 {
		t.Errorf("right shoulder = %+v, want X 0.60 conf 0.9", p)
	}

	// Untracked hands come back as missing points.
	for _, p := range frame.Group(landmark.GroupLeftHand) {
		if !p.Missing {
			t.Fatal("untracked left hand should be missing")
		}
	}
	for _, p := range frame.Group(landmark.GroupFace) {
		if p.Missing {
			t.Fatal("tracked face should not be missing")
		}
	}
}

func TestParse_RejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "not json",
			body: `{gloss}`,
			want: "decode signature",
		},
		{
			name: "missing gloss",
			body: `{"language": "asl", "frames": [{}]}`,
			want: "no gloss",
		},
		{
			name: "missing language",
			body: `{"gloss": "hello", "frames": [{}]}`,
			want: "no language",
		},
		{
			name: "no frames",
			body: `{"gloss": "hello", "language": "asl", "frames": []}`,
			want: "no frames",
		},
		{
			name: "wrong pose cardinality",
			body: `{"gloss": "hello", "language": "asl", "frames": [{"pose": [[0, 0, 0]]}]}`,
			want: "group pose has 1 points, want 6",
		},
		{
			name: "short row",
			body: `{"gloss": "hello", "language": "asl", "frames": [
				{"face": [[0.1, 0.2], [0, 0, 0], [0, 0, 0], [0, 0, 0]]}]}`,
			want: "group face point 0 has 2 values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if err == nil {
				t.Fatal("Parse() accepted a malformed recording")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLandmarkFrames_InfersConfidenceFromThreeValueRows(t *testing.T) {
	// Recordings without per-point confidence mark undetected points by
	// writing zeros for all coordinates.
	body := `{
		"gloss": "hello",
		"language": "asl",
		"frames": [
			{
				"pose": [
					[0.40, 0.40, 0.00],
					[0.60, 0.40, 0.00],
					[0.00, 0.00, 0.00],
					[0.65, 0.60, 0.01],
					[0.30, 0.80, 0.02],
					[0.70, 0.80, 0.02]
				]
			}
		]
	}`

	f, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	frames, err := f.LandmarkFrames()
	if err != nil {
		t.Fatalf("LandmarkFrames() error = %v", err)
	}

	frame := frames[0]
	if p := frame.Point(landmark.GroupPose, landmark.LeftShoulder); p.Confidence != 1 {
		t.Errorf("tracked point confidence = %v, want 1", p.Confidence)
	}
	if p := frame.Point(landmark.GroupPose, landmark.LeftElbow); p.Confidence != 0 {
		t.Errorf("all-zero point confidence = %v, want 0", p.Confidence)
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello_1.json")
	if err := os.WriteFile(path, []byte(poseOnlyRecording), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if f.Gloss != "hello" {
		t.Errorf("gloss = %q, want hello", f.Gloss)
	}

	if _, err := Read(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Read() succeeded on a missing file")
	}
}

func TestRead_NamesFileInParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"language": "asl", "frames": [{}]}`), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	_, err := Read(path)
	if err == nil {
		t.Fatal("Read() accepted a recording without a gloss")
	}
	if !strings.Contains(err.Error(), "broken.json") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestNormalizeGloss(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "hello"},
		{"Thank You", "thank_you"},
		{"  where   is  ", "where_is"},
		// Fullwidth compatibility characters fold to ASCII.
		{"Ｈｅｌｌｏ", "hello"},
		// Precomposed and combining forms fold to the same identifier.
		{"café", "café"},
		{"café", "café"},
	}

	for _, tt := range tests {
		if got := NormalizeGloss(tt.in); got != tt.want {
			t.Errorf("NormalizeGloss(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
