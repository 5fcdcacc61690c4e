// Package config loads render settings from JSON files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/sugawarayuuta/sonnet"
)

// ErrInvalidConfig is returned for settings that cannot describe a render
var ErrInvalidConfig = errors.New("invalid config")

// Config contains every setting of a render
type Config struct {
	Scene           string           `json:"scene"`    // Built-in scene name
	Width           int              `json:"width"`    // Image width
	Height          int              `json:"height"`   // Image height
	SamplesPerPixel int              `json:"spp"`      // Samples per pixel
	Passes          int              `json:"passes"`   // Progressive passes
	Capacity        int              `json:"capacity"` // Ray slots per wave, 0 for automatic
	Seed            uint32           `json:"seed"`     // Random stream seed
	Device          DeviceConfig     `json:"device"`
	Integrator      IntegratorConfig `json:"integrator"`
	Output          OutputConfig     `json:"output"`
	StatsDB         string           `json:"stats_db"` // SQLite file for wave statistics, empty disables
}

// DeviceConfig describes the execution device
type DeviceConfig struct {
	GroupSize int    `json:"group_size"` // Threads per group
	Model     string `json:"model"`      // "divergence-tolerant" or "lock-step"
	Workers   int    `json:"workers"`    // Concurrent groups, 0 for one per CPU
}

// IntegratorConfig holds the path tracing settings
type IntegratorConfig struct {
	UseDirectLight            bool    `json:"use_direct_light"`
	MaxBounce                 int     `json:"max_bounce"`
	RussianRouletteMinBounces int     `json:"rr_min_bounces"`
	LightInvRRThreshold       float64 `json:"light_inv_rr_threshold"`
	MotionBlur                bool    `json:"motion_blur"`
}

// OutputConfig selects where and how the image is written
type OutputConfig struct {
	Dir    string `json:"dir"`
	Format string `json:"format"` // png, bmp or tiff
}

// Default returns the settings used when no file is given
func Default() Config {
	icfg := integrator.DefaultConfig()
	return Config{
		Scene:           "default",
		Width:           400,
		Height:          225,
		SamplesPerPixel: 16,
		Passes:          1,
		Device: DeviceConfig{
			GroupSize: 64,
			Model:     kernel.DivergenceTolerant.String(),
		},
		Integrator: IntegratorConfig{
			UseDirectLight:            icfg.UseDirectLight,
			MaxBounce:                 icfg.MaxBounce,
			RussianRouletteMinBounces: icfg.RussianRouletteMinBounces,
			LightInvRRThreshold:       icfg.LightInvRRThreshold,
			MotionBlur:                icfg.MotionBlur,
		},
		Output: OutputConfig{
			Dir:    "output",
			Format: string(renderer.FormatPNG),
		},
	}
}

// Load reads a JSON file on top of Default and validates the result.
// Fields missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every setting
func (c Config) Validate() error {
	switch {
	case c.Scene == "":
		return fmt.Errorf("%w: scene is required", ErrInvalidConfig)
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: spp %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.Passes < 1 || c.Passes > c.SamplesPerPixel:
		return fmt.Errorf("%w: %d passes for %d samples", ErrInvalidConfig, c.Passes, c.SamplesPerPixel)
	case c.Capacity < 0:
		return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, c.Capacity)
	case c.Integrator.MaxBounce < 0:
		return fmt.Errorf("%w: max bounce %d", ErrInvalidConfig, c.Integrator.MaxBounce)
	case c.Integrator.RussianRouletteMinBounces < 0:
		return fmt.Errorf("%w: rr min bounces %d", ErrInvalidConfig, c.Integrator.RussianRouletteMinBounces)
	case c.Integrator.LightInvRRThreshold < 0:
		return fmt.Errorf("%w: light termination threshold %g", ErrInvalidConfig, c.Integrator.LightInvRRThreshold)
	}

	if _, err := c.KernelConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := renderer.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// KernelConfig converts the device settings
func (c Config) KernelConfig() (kernel.Config, error) {
	model, err := kernel.ParseExecModel(c.Device.Model)
	if err != nil {
		return kernel.Config{}, err
	}
	kcfg := kernel.Config{
		GroupSize: c.Device.GroupSize,
		Model:     model,
		Workers:   c.Device.Workers,
	}
	return kcfg, kcfg.Validate()
}

// IntegratorConfig converts the path tracing settings
func (c Config) IntegratorConfig() integrator.Config {
	return integrator.Config{
		UseDirectLight:            c.Integrator.UseDirectLight,
		MaxBounce:                 c.Integrator.MaxBounce,
		RussianRouletteMinBounces: c.Integrator.RussianRouletteMinBounces,
		LightInvRRThreshold:       c.Integrator.LightInvRRThreshold,
		MotionBlur:                c.Integrator.MotionBlur,
	}
}

// RenderConfig converts the settings used by the wavefront renderer
func (c Config) RenderConfig() (renderer.Config, error) {
	kcfg, err := c.KernelConfig()
	if err != nil {
		return renderer.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return renderer.Config{
		Width:           c.Width,
		Height:          c.Height,
		SamplesPerPixel: c.SamplesPerPixel,
		Capacity:        c.Capacity,
		Seed:            c.Seed,
		Integrator:      c.IntegratorConfig(),
		Device:          kcfg,
	}, nil
}

// ProgressiveConfig converts the pass schedule
func (c Config) ProgressiveConfig() renderer.ProgressiveConfig {
	return renderer.ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: c.SamplesPerPixel,
		MaxPasses:          c.Passes,
	}
}

// Format returns the parsed output format
func (c Config) Format() (renderer.Format, error) {
	return renderer.ParseFormat(c.Output.Format)
}
