package app

import (
	"time"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/recognizer"
)

// produce owns the camera: it paces reads with a ticker, gates the
// capture rate on motion, runs holistic detection, and offers the
// resulting frames to the recognize loop.
//
// Motion only ever changes the frame rate. Detection itself runs on
// every captured frame, so a signer holding perfectly still is not
// dropped mid-window.
func (a *App) produce(stopCh <-chan struct{}) {
	defer a.wg.Done()

	active := true
	lastMotion := time.Now()
	ticker := time.NewTicker(fpsInterval(a.config.Capture.ActiveFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.enabled.Load() {
				continue
			}

			mat, err := a.camera.ReadFrame()
			if err != nil {
				a.logger.Warn("read camera frame", "error", err)
				continue
			}

			moving, _ := a.motion.Detect(mat)
			if moving {
				lastMotion = time.Now()
				if !active {
					active = true
					a.camera.SetFPS(a.config.Capture.ActiveFPS)
					ticker.Reset(fpsInterval(a.config.Capture.ActiveFPS))
					a.logger.Debug("motion resumed, active capture rate")
				}
			} else if active && time.Since(lastMotion) > a.config.Capture.IdleAfter() {
				active = false
				a.camera.SetFPS(a.config.Capture.IdleFPS)
				ticker.Reset(fpsInterval(a.config.Capture.IdleFPS))
				a.logger.Debug("scene idle, reduced capture rate")
			}

			frame, err := a.detector.Detect(mat)
			mat.Close()
			if err != nil {
				a.logger.Warn("detect landmarks", "error", err)
				continue
			}

			a.offer(frame)
		}
	}
}

// offer places a frame in the mailbox without ever blocking: when the
// recognize loop is behind, the stale frame is dropped and the fresh
// one wins.
func (a *App) offer(frame *landmark.Frame) {
	select {
	case a.frames <- frame:
		return
	default:
	}
	select {
	case <-a.frames:
	default:
	}
	select {
	case a.frames <- frame:
	default:
	}
}

// recognize drains the mailbox into the pipeline. It is the only
// goroutine touching the window and the debouncer, so the hot path
// needs no locks. Reset requests are applied between frames, never
// mid-evaluation.
func (a *App) recognize(stopCh <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-a.resetCh:
			a.applyReset()
		case frame := <-a.frames:
			// A reset raced ahead of this frame; the new epoch must
			// not inherit it.
			select {
			case <-a.resetCh:
				a.applyReset()
			default:
			}

			if _, _, err := a.Process(frame); err != nil {
				a.logger.Error("process frame", "error", err)
			}
		}
	}
}

func (a *App) applyReset() {
	a.pipeline.Reset()
	a.publish(recognizer.Result{}, nil)
	a.logger.Info("recognition window reset")
}

func fpsInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}
