package app

import (
	"log"
	"time"
)

// errorLogEvery limits how often a repeating pipeline error is logged.
const errorLogEvery = 5 * time.Second

// runPipeline is the main detection loop. Every tick it reads one frame,
// detects hands and hands them to the interpreter. Frames are skipped
// while the app is disabled. Cycles run strictly one after another.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var lastErr string
	var lastErrAt time.Time
	logErr := func(format string, err error) {
		msg := err.Error()
		if msg == lastErr && time.Since(lastErrAt) < errorLogEvery {
			return
		}
		lastErr, lastErrAt = msg, time.Now()
		log.Printf(format, err)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				logErr("Error reading frame: %v", err)
				continue
			}

			err = a.ProcessFrame(frame)
			frame.Close()
			if err != nil {
				logErr("Error processing frame: %v", err)
			}
		}
	}
}
