package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	InitialSamples     int // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int // Maximum total samples per pixel
	MaxPasses          int // Maximum number of passes
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: 16,
		MaxPasses:          4,
	}
}

// Validate checks the pass schedule
func (c ProgressiveConfig) Validate() error {
	if c.MaxPasses < 1 {
		return fmt.Errorf("invalid pass count %d", c.MaxPasses)
	}
	if c.MaxSamplesPerPixel < 1 {
		return fmt.Errorf("invalid samples per pixel %d", c.MaxSamplesPerPixel)
	}
	if c.MaxPasses > 1 && (c.InitialSamples < 1 || c.InitialSamples > c.MaxSamplesPerPixel) {
		return fmt.Errorf("invalid initial samples %d", c.InitialSamples)
	}
	return nil
}

// getSamplesForPass calculates the target total samples for a given pass
func (c ProgressiveConfig) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if c.MaxPasses == 1 {
		return c.MaxSamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return c.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := c.MaxSamplesPerPixel - c.InitialSamples
	remainingPasses := c.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := c.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber == c.MaxPasses {
		targetSamples = c.MaxSamplesPerPixel
	}

	return targetSamples
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive renders in passes of increasing sample count on r and
// returns channels for events. The caller should read from these channels in
// separate goroutines. The renderer's SamplesPerPixel is replaced by
// config.MaxSamplesPerPixel.
func RenderProgressive(ctx context.Context, r *WavefrontRenderer, config ProgressiveConfig) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		if err := config.Validate(); err != nil {
			errChan <- err
			return
		}
		r.cfg.SamplesPerPixel = config.MaxSamplesPerPixel

		logger := core.Logger().With("render_id", r.RenderID())
		logger.Info("progressive render started", "passes", config.MaxPasses, "spp", config.MaxSamplesPerPixel)

		for pass := 1; pass <= config.MaxPasses; pass++ {
			// Check if the caller gave up before starting this pass
			select {
			case <-ctx.Done():
				logger.Info("render cancelled", "pass", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()
			target := config.getSamplesForPass(pass)
			if err := r.RenderSamples(ctx, target-r.samplesDone); err != nil {
				errChan <- err
				return
			}

			img, stats := r.Snapshot()
			logger.Info("pass completed",
				"pass", pass,
				"spp", target,
				"duration", time.Since(startTime))

			isLast := pass == config.MaxPasses || target >= config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				return
			}
			if isLast {
				break
			}
		}
	}()

	return passChan, errChan
}
