package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/config"
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
	"github.com/df07/go-wavefront-raytracer/pkg/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, renders and saves the image
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := config.Default()
	configPath := fs.String("config", "", "JSON config file; flags override its values")
	sceneType := fs.String("scene", defaults.Scene, "Scene type: 'default' or 'cornell'")
	width := fs.Int("width", defaults.Width, "Image width")
	height := fs.Int("height", defaults.Height, "Image height")
	spp := fs.Int("spp", defaults.SamplesPerPixel, "Samples per pixel")
	passes := fs.Int("passes", defaults.Passes, "Progressive passes")
	capacity := fs.Int("capacity", defaults.Capacity, "Ray slots per wave (0 = automatic)")
	groupSize := fs.Int("group-size", defaults.Device.GroupSize, "Threads per execution group")
	model := fs.String("model", defaults.Device.Model, "Execution model: 'divergence-tolerant' or 'lock-step'")
	workers := fs.Int("workers", defaults.Device.Workers, "Concurrent groups (0 = one per CPU)")
	seed := fs.Uint("seed", uint(defaults.Seed), "Random stream seed")
	noDirectLight := fs.Bool("no-direct-light", false, "Disable light sampling")
	motionBlur := fs.Bool("motion-blur", false, "Give every camera ray a time sample")
	format := fs.String("format", defaults.Output.Format, "Output format: png, bmp or tiff")
	outputDir := fs.String("output", defaults.Output.Dir, "Output root directory")
	statsDB := fs.String("stats-db", "", "SQLite file receiving wave statistics")
	verbose := fs.Bool("v", false, "Log every wave and dispatch")
	help := fs.Bool("help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *help {
		printHelp(fs, stdout)
		return nil
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneType
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "spp":
			cfg.SamplesPerPixel = *spp
		case "passes":
			cfg.Passes = *passes
		case "capacity":
			cfg.Capacity = *capacity
		case "group-size":
			cfg.Device.GroupSize = *groupSize
		case "model":
			cfg.Device.Model = *model
		case "workers":
			cfg.Device.Workers = *workers
		case "seed":
			cfg.Seed = uint32(*seed)
		case "no-direct-light":
			cfg.Integrator.UseDirectLight = !*noDirectLight
		case "motion-blur":
			cfg.Integrator.MotionBlur = *motionBlur
		case "format":
			cfg.Output.Format = *format
		case "output":
			cfg.Output.Dir = *outputDir
		case "stats-db":
			cfg.StatsDB = *statsDB
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	core.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer core.SetLogger(nil)

	return render(cfg, stdout)
}

// render runs one configured render and writes the image
func render(cfg config.Config, stdout io.Writer) error {
	selectedScene, err := createScene(cfg.Scene, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	selectedScene.LightInvRRThreshold = cfg.Integrator.LightInvRRThreshold

	rcfg, err := cfg.RenderConfig()
	if err != nil {
		return err
	}
	outputFormat, err := cfg.Format()
	if err != nil {
		return err
	}

	r, err := renderer.NewWavefrontRenderer(selectedScene, selectedScene.Camera, rcfg)
	if err != nil {
		return err
	}
	defer r.Close()

	var store *stats.Store
	if cfg.StatsDB != "" {
		store, err = stats.Open(cfg.StatsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		r.SetRecorder(store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	passChan, errChan := renderer.RenderProgressive(ctx, r, cfg.ProgressiveConfig())

	var last renderer.PassResult
	for result := range passChan {
		last = result
	}
	if err := <-errChan; err != nil {
		return err
	}
	if last.Image == nil {
		return errors.New("render produced no image")
	}
	renderTime := time.Since(startTime)

	filename := renderer.OutputPath(cfg.Output.Dir, cfg.Scene, outputFormat, time.Now())
	if err := renderer.SaveImage(filename, last.Image, outputFormat); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "Render completed in %v\n", renderTime.Round(time.Millisecond))
	p.Fprintf(stdout, "Samples: %d (%.1f per pixel, range %d - %d)\n",
		last.Stats.TotalSamples, last.Stats.AverageSamples, last.Stats.MinSamples, last.Stats.MaxSamplesUsed)
	p.Fprintf(stdout, "Waves: %d, iterations: %d, dispatches: %d\n",
		last.Stats.Waves, last.Stats.Iterations, last.Stats.Dispatches)

	if store != nil {
		summaries, err := store.StageRuns(ctx, r.RenderID())
		if err != nil {
			core.Logger().Warn("failed to read stage statistics", "error", err)
		}
		for _, st := range summaries {
			p.Fprintf(stdout, "  %-24s %6d runs %12d threads %v\n", st.Kernel, st.Runs, st.Threads, st.Duration.Round(time.Microsecond))
		}
	}

	p.Fprintf(stdout, "Render saved as %s\n", filename)
	return nil
}

// createScene builds the named built-in scene
func createScene(sceneType string, width, height int) (*scene.Scene, error) {
	return scene.New(sceneType, width, height)
}

func printHelp(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Wavefront Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, info := range scene.ListScenes() {
		fmt.Fprintf(w, "  %s - %s\n", info.ID, info.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output will be saved to output/<scene_type>/render_<timestamp>.<format>")
}
