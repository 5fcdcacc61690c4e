package renderer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/google/uuid"
)

// maxDefaultCapacity bounds the slot count chosen when Config.Capacity is 0
const maxDefaultCapacity = 1 << 16

// Config contains the settings of a wavefront render
type Config struct {
	Width           int               // Image width
	Height          int               // Image height
	SamplesPerPixel int               // Samples per pixel of a full render
	Capacity        int               // Ray slots per wave, 0 means one per pixel up to 65536
	Seed            uint32            // Random stream seed
	Integrator      integrator.Config // Stage settings
	Device          kernel.Config     // Execution device
}

// DefaultConfig returns a 400x225 render at 16 samples per pixel
func DefaultConfig() Config {
	return Config{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 16,
		Integrator:      integrator.DefaultConfig(),
		Device:          kernel.DefaultConfig(),
	}
}

// Validate checks the render settings
func (c Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid image size %dx%d", c.Width, c.Height)
	}
	if c.SamplesPerPixel < 1 {
		return fmt.Errorf("invalid samples per pixel %d", c.SamplesPerPixel)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("invalid capacity %d", c.Capacity)
	}
	if c.Integrator.MaxBounce < 0 {
		return fmt.Errorf("invalid max bounce %d", c.Integrator.MaxBounce)
	}
	return c.Device.Validate()
}

// StageRun describes one kernel dispatch inside a wave
type StageRun struct {
	Iteration int           // Bounce iteration of the wave, 0 before the first
	Kernel    string        // Stage name
	QueueSize int           // Threads requested: live queue size or slot count
	Groups    int           // Groups dispatched
	Threads   int           // Threads dispatched, a whole number of groups
	Duration  time.Duration // Wall time of the dispatch
}

// WaveStats describes one wave: one sample of a contiguous run of pixels
type WaveStats struct {
	RenderID   string
	Wave       int
	Sample     int
	FirstPixel int
	NumPixels  int
	Iterations int
	Stages     []StageRun
	Duration   time.Duration
}

// WaveRecorder receives the statistics of every finished wave
type WaveRecorder interface {
	RecordWave(ctx context.Context, stats WaveStats) error
}

// WavefrontRenderer drives the split-kernel pipeline. Each wave generates
// camera rays for up to Capacity pixels and iterates intersection, shading
// and shadow stages until no ray is active, then sums the finished paths
// into the film.
type WavefrontRenderer struct {
	cfg      Config
	scene    integrator.Scene
	camera   integrator.Camera
	device   *kernel.Device
	state    *integrator.SplitState
	film     *Film
	rng      core.HashRNG
	renderID uuid.UUID
	recorder WaveRecorder

	samplesDone int
	waves       int
	iterations  int
	dispatches  int
}

// NewWavefrontRenderer validates cfg and starts the execution device
func NewWavefrontRenderer(scene integrator.Scene, camera integrator.Camera, cfg Config) (*WavefrontRenderer, error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = min(cfg.Width*cfg.Height, maxDefaultCapacity)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	device, err := kernel.NewDevice(cfg.Device)
	if err != nil {
		return nil, err
	}

	return &WavefrontRenderer{
		cfg:      cfg,
		scene:    scene,
		camera:   camera,
		device:   device,
		state:    integrator.NewSplitState(cfg.Capacity),
		film:     NewFilm(cfg.Width, cfg.Height),
		rng:      core.NewHashRNG(cfg.Seed),
		renderID: uuid.New(),
	}, nil
}

// SetRecorder installs a receiver for wave statistics
func (r *WavefrontRenderer) SetRecorder(recorder WaveRecorder) {
	r.recorder = recorder
}

// RenderID returns the identifier attached to this render's logs and records
func (r *WavefrontRenderer) RenderID() string {
	return r.renderID.String()
}

// Config returns the effective configuration
func (r *WavefrontRenderer) Config() Config {
	return r.cfg
}

// Close stops the execution device
func (r *WavefrontRenderer) Close() {
	r.device.Close()
}

// Render renders every remaining sample of the image and returns the result
func (r *WavefrontRenderer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	logger := core.Logger().With("render_id", r.RenderID())
	logger.Info("render started",
		"width", r.cfg.Width,
		"height", r.cfg.Height,
		"spp", r.cfg.SamplesPerPixel,
		"capacity", r.cfg.Capacity,
		"group_size", r.cfg.Device.GroupSize,
		"model", r.cfg.Device.Model.String())

	start := time.Now()
	if err := r.RenderSamples(ctx, r.cfg.SamplesPerPixel-r.samplesDone); err != nil {
		return nil, RenderStats{}, err
	}

	img, stats := r.Snapshot()
	logger.Info("render finished",
		"waves", stats.Waves,
		"iterations", stats.Iterations,
		"dispatches", stats.Dispatches,
		"duration", time.Since(start))
	return img, stats, nil
}

// RenderSamples renders the next n samples of every pixel
func (r *WavefrontRenderer) RenderSamples(ctx context.Context, n int) error {
	pixels := r.cfg.Width * r.cfg.Height
	for i := 0; i < n; i++ {
		sample := r.samplesDone
		for first := 0; first < pixels; first += r.cfg.Capacity {
			batch := integrator.Batch{
				FirstPixel: first,
				NumPixels:  min(r.cfg.Capacity, pixels-first),
				Sample:     sample,
				NumSamples: r.cfg.SamplesPerPixel,
			}
			if err := r.runWave(ctx, batch); err != nil {
				return fmt.Errorf("sample %d, pixels %d-%d: %w", sample, first, first+batch.NumPixels-1, err)
			}
		}
		r.samplesDone++
	}
	return nil
}

// Snapshot returns the current image and statistics
func (r *WavefrontRenderer) Snapshot() (*image.RGBA, RenderStats) {
	img, stats := r.film.Image(r.cfg.SamplesPerPixel)
	stats.RenderID = r.RenderID()
	stats.Waves = r.waves
	stats.Iterations = r.iterations
	stats.Dispatches = r.dispatches
	return img, stats
}

// runWave traces one batch to completion
func (r *WavefrontRenderer) runWave(ctx context.Context, batch integrator.Batch) error {
	start := time.Now()
	s := r.state
	qs := s.Queues
	icfg := r.cfg.Integrator

	wave := WaveStats{
		RenderID:   r.RenderID(),
		Wave:       r.waves,
		Sample:     batch.Sample,
		FirstPixel: batch.FirstPixel,
		NumPixels:  batch.NumPixels,
	}

	generate := &integrator.GenerateRays{
		State:  s,
		Camera: r.camera,
		RNG:    r.rng,
		Config: icfg,
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Batch:  batch,
	}
	enqueue := &integrator.QueueEnqueue{State: s}
	intersect := &integrator.SceneIntersect{State: s, Scene: r.scene, Config: icfg}
	background := &integrator.BackgroundBufferUpdate{State: s, Scene: r.scene}
	direct := &integrator.DirectLighting{State: s, Scene: r.scene, RNG: r.rng, Config: icfg}
	shadow := &integrator.ShadowBlocked{State: s, Scene: r.scene}
	next := &integrator.NextIteration{State: s, RNG: r.rng, Config: icfg}
	sum := &integrator.SumRadiance{State: s, Film: r.film}

	s.Reset()
	if err := r.dispatch(ctx, &wave, generate, s.Capacity); err != nil {
		return err
	}
	if err := r.requeue(ctx, &wave, enqueue); err != nil {
		return err
	}

	// Every iteration either advances a path by one bounce or retires it
	maxIterations := icfg.MaxBounce + 2
	for qs.Size(kernel.QueueActiveAndRegeneratedRays) > 0 {
		wave.Iterations++
		if wave.Iterations > maxIterations {
			return fmt.Errorf("%d rays still queued after %d iterations (%d active, %d regenerated)",
				qs.Size(kernel.QueueActiveAndRegeneratedRays), maxIterations,
				s.RayState.Count(kernel.RayActive), s.RayState.Count(kernel.RayRegenerated))
		}

		if err := r.dispatch(ctx, &wave, intersect, qs.Size(kernel.QueueActiveAndRegeneratedRays)); err != nil {
			return err
		}
		if err := r.requeue(ctx, &wave, enqueue); err != nil {
			return err
		}
		if err := r.dispatch(ctx, &wave, background, qs.Size(kernel.QueueHitBgBuffUpdateToRegenRays)); err != nil {
			return err
		}

		qs.Reset(kernel.QueueShadowRayCastDLRays)
		if err := r.dispatchChecked(ctx, &wave, direct, kernel.QueueActiveAndRegeneratedRays); err != nil {
			return err
		}
		if err := r.dispatch(ctx, &wave, shadow, qs.Size(kernel.QueueShadowRayCastDLRays)); err != nil {
			return err
		}

		if err := r.dispatch(ctx, &wave, next, qs.Size(kernel.QueueActiveAndRegeneratedRays)); err != nil {
			return err
		}
		if err := r.requeue(ctx, &wave, enqueue); err != nil {
			return err
		}
	}

	if err := r.dispatch(ctx, &wave, sum, s.Capacity); err != nil {
		return err
	}

	wave.Duration = time.Since(start)
	r.waves++
	r.iterations += wave.Iterations
	r.record(ctx, wave)
	return nil
}

// requeue rebuilds the two queues filled by QueueEnqueue
func (r *WavefrontRenderer) requeue(ctx context.Context, wave *WaveStats, enqueue *integrator.QueueEnqueue) error {
	qs := r.state.Queues
	qs.Reset(kernel.QueueActiveAndRegeneratedRays)
	qs.Reset(kernel.QueueHitBgBuffUpdateToRegenRays)
	return r.dispatch(ctx, wave, enqueue, r.state.Capacity)
}

// dispatch runs one stage and appends it to the wave record
func (r *WavefrontRenderer) dispatch(ctx context.Context, wave *WaveStats, k kernel.Kernel, size int) error {
	stats, err := r.device.Dispatch(ctx, k, size)
	if err != nil {
		return err
	}
	r.dispatches++
	wave.Stages = append(wave.Stages, StageRun{
		Iteration: wave.Iterations,
		Kernel:    stats.Kernel,
		QueueSize: size,
		Groups:    stats.Groups,
		Threads:   stats.Threads,
		Duration:  stats.Duration,
	})
	return nil
}

// dispatchChecked runs a stage over the live entries of its input queue. With
// debug logging enabled it also verifies that the stage left the queue
// byte-for-byte unchanged.
func (r *WavefrontRenderer) dispatchChecked(ctx context.Context, wave *WaveStats, k kernel.Kernel, input kernel.QueueID) error {
	qs := r.state.Queues
	logger := core.Logger()
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return r.dispatch(ctx, wave, k, qs.Size(input))
	}

	before := qs.Checksum(input)
	if err := r.dispatch(ctx, wave, k, qs.Size(input)); err != nil {
		return err
	}
	if after := qs.Checksum(input); after != before {
		return fmt.Errorf("%s modified its input queue %s", k.Name(), input)
	}
	logger.Debug("input queue unchanged",
		"render_id", wave.RenderID,
		"kernel", k.Name(),
		"queue", input.String(),
		"checksum", hex.EncodeToString(before[:8]))
	return nil
}

// record hands the wave to the recorder. Recorder failures do not stop the render.
func (r *WavefrontRenderer) record(ctx context.Context, wave WaveStats) {
	core.Logger().Debug("wave finished",
		"render_id", wave.RenderID,
		"wave", wave.Wave,
		"sample", wave.Sample,
		"pixels", wave.NumPixels,
		"iterations", wave.Iterations,
		"duration", wave.Duration)

	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordWave(ctx, wave); err != nil && !errors.Is(err, context.Canceled) {
		core.Logger().Warn("failed to record wave", "render_id", wave.RenderID, "wave", wave.Wave, "error", err)
	}
}
