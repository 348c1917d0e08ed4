package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// idleShutdown is how long the detector may sit unused before its
// Python process is stopped. It restarts lazily on the next Detect.
const idleShutdown = 30 * time.Second

// HolisticDetector implements Detector using a Python MediaPipe
// Holistic subprocess. Frames go out as length-prefixed JPEG, landmark
// results come back as JSON lines.
type HolisticDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewHolisticDetector creates a new holistic detector. The Python
// process is started lazily on first detection.
func NewHolisticDetector(config Config) (*HolisticDetector, error) {
	script, err := resolveScript(config.Script)
	if err != nil {
		return nil, err
	}

	return &HolisticDetector{
		config: config,
		script: script,
	}, nil
}

// Detect analyzes a frame and returns the tracked landmarks.
func (d *HolisticDetector) Detect(frame *gocv.Mat) (*landmark.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := frameFromResponse([]byte(line))
	if err != nil {
		// A malformed response means the stream is out of sync; stop
		// the service so the next call starts a fresh one.
		d.shutdown()
		return nil, err
	}

	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *HolisticDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *HolisticDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start holistic service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *HolisticDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *HolisticDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// resolveScript locates the holistic service script. An explicit path
// must exist; otherwise the usual install locations are searched.
func resolveScript(script string) (string, error) {
	if script != "" {
		if _, err := os.Stat(script); err != nil {
			return "", fmt.Errorf("holistic service script: %w", err)
		}
		return script, nil
	}

	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"detector/holistic_service.py",
		"../detector/holistic_service.py",
		filepath.Join(execDir, "detector/holistic_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/detector/holistic_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath, nil
			}
			return path, nil
		}
	}
	return "", fmt.Errorf("holistic_service.py not found")
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	// Get executable directory to find project root
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPoint is one landmark in the Python service's response. V is
// the point's visibility score.
type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	V float64 `json:"v"`
}

// frameFromResponse converts one service response line into a landmark
// frame. Absent or empty groups become missing points.
func frameFromResponse(line []byte) (*landmark.Frame, error) {
	var response struct {
		Pose      []jsonPoint `json:"pose"`
		LeftHand  []jsonPoint `json:"left_hand"`
		RightHand []jsonPoint `json:"right_hand"`
		Face      []jsonPoint `json:"face"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	groups := make(map[string][]landmark.Point)
	add := func(name string, points []jsonPoint) {
		if len(points) == 0 {
			return
		}
		converted := make([]landmark.Point, len(points))
		for i, p := range points {
			converted[i] = landmark.Point{X: p.X, Y: p.Y, Z: p.Z, Confidence: p.V}
		}
		groups[name] = converted
	}
	add(landmark.GroupPose, response.Pose)
	add(landmark.GroupLeftHand, response.LeftHand)
	add(landmark.GroupRightHand, response.RightHand)
	add(landmark.GroupFace, response.Face)

	frame, err := landmark.NewFrame(groups)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return frame, nil
}
