package server

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
	Wave      int       `json:"wave"`
	Sample    int       `json:"sample"`
}

// WaveConsole implements renderer.WaveRecorder by describing each finished
// wave on a console channel and passing the wave on to the next recorder
type WaveConsole struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	next        renderer.WaveRecorder
}

// NewWaveConsole creates a console for a specific render. next may be nil.
func NewWaveConsole(renderID string, consoleChan chan<- ConsoleMessage, next renderer.WaveRecorder) *WaveConsole {
	return &WaveConsole{
		renderID:    renderID,
		consoleChan: consoleChan,
		next:        next,
	}
}

// RecordWave implements renderer.WaveRecorder
func (wc *WaveConsole) RecordWave(ctx context.Context, wave renderer.WaveStats) error {
	dispatched := 0
	for _, stage := range wave.Stages {
		dispatched += stage.Threads
	}
	msg := ConsoleMessage{
		Message: fmt.Sprintf("wave %d: sample %d, pixels %d-%d, %d iterations, %d threads in %v",
			wave.Wave, wave.Sample, wave.FirstPixel, wave.FirstPixel+wave.NumPixels-1,
			wave.Iterations, dispatched, wave.Duration.Round(time.Microsecond)),
		Timestamp: time.Now(),
		Level:     "info",
		Wave:      wave.Wave,
		Sample:    wave.Sample,
	}

	// Send to web console if channel is available (non-blocking)
	if wc.consoleChan != nil {
		select {
		case wc.consoleChan <- msg:
		default:
			// Channel full, skip (don't block)
		}
	}

	if wc.next != nil {
		return wc.next.RecordWave(ctx, wave)
	}
	return nil
}
