package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
	"github.com/df07/go-wavefront-raytracer/pkg/stats"
	"github.com/sugawarayuuta/sonnet"
)

// Server handles web requests for the wavefront raytracer
type Server struct {
	port  int
	store *stats.Store
	mux   *http.ServeMux
}

// NewServer creates a new web server. store may be nil, in which case wave
// statistics are streamed to clients but not persisted.
func NewServer(port int, store *stats.Store) *Server {
	s := &Server{port: port, store: store, mux: http.NewServeMux()}

	// Serve static files
	s.mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene          string `json:"scene"`          // Scene name (e.g., "cornell")
	Width          int    `json:"width"`          // Image width
	Height         int    `json:"height"`         // Image height
	MaxSamples     int    `json:"maxSamples"`     // Maximum samples per pixel
	MaxPasses      int    `json:"maxPasses"`      // Maximum number of passes
	MaxBounce      int    `json:"maxBounce"`      // Bounce limit of every path
	RRMinBounces   int    `json:"rrMinBounces"`   // Russian Roulette minimum bounces
	Capacity       int    `json:"capacity"`       // Ray slots per wave, 0 for automatic
	GroupSize      int    `json:"groupSize"`      // Threads per execution group
	Model          string `json:"model"`          // Execution model name
	UseDirectLight bool   `json:"useDirectLight"` // Light sampling on or off
}

// Stats represents render statistics
type Stats struct {
	RenderID       string  `json:"renderId"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	Waves          int     `json:"waves"`
	Iterations     int     `json:"iterations"`
	Dispatches     int     `json:"dispatches"`
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	core.Logger().Info("starting web server", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, scene.ListScenes())
}

// handleStats exports the recorded waves of one render
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "statistics store not configured"})
		return
	}
	renderID := r.URL.Query().Get("render_id")
	if renderID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "render_id is required"})
		return
	}

	var buf bytes.Buffer
	if err := s.store.ExportJSON(r.Context(), &buf, renderID); err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	defaults := integrator.DefaultConfig()
	device := kernel.DefaultConfig()
	values := r.URL.Query()

	req := &RenderRequest{Scene: "cornell", UseDirectLight: true, Model: device.Model.String()}
	if name := values.Get("scene"); name != "" {
		req.Scene = name
	}
	if model := values.Get("model"); model != "" {
		req.Model = model
	}
	if direct := values.Get("directLight"); direct != "" {
		enabled, err := strconv.ParseBool(direct)
		if err != nil {
			return nil, fmt.Errorf("invalid directLight: %s", direct)
		}
		req.UseDirectLight = enabled
	}

	// Parse and validate numeric parameters using helper functions
	var err error
	if req.Width, err = parseIntParam(values, "width", 400, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 400, 1, 2000); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(values, "maxSamples", 16, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", 4, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxBounce, err = parseIntParam(values, "maxBounce", defaults.MaxBounce, 0, 1000); err != nil {
		return nil, err
	}
	if req.RRMinBounces, err = parseIntParam(values, "rrMinBounces", defaults.RussianRouletteMinBounces, 0, 1000); err != nil {
		return nil, err
	}
	if req.Capacity, err = parseIntParam(values, "capacity", 0, 0, 1<<20); err != nil {
		return nil, err
	}
	if req.GroupSize, err = parseIntParam(values, "groupSize", device.GroupSize, 1, 1024); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		core.Logger().Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "spp", req.MaxSamples)
	}

	return req, nil
}

// renderConfig converts the request into renderer settings
func (req *RenderRequest) renderConfig() (renderer.Config, error) {
	model, err := kernel.ParseExecModel(req.Model)
	if err != nil {
		return renderer.Config{}, err
	}

	cfg := renderer.DefaultConfig()
	cfg.Width = req.Width
	cfg.Height = req.Height
	cfg.SamplesPerPixel = req.MaxSamples
	cfg.Capacity = req.Capacity
	cfg.Integrator.UseDirectLight = req.UseDirectLight
	cfg.Integrator.MaxBounce = req.MaxBounce
	cfg.Integrator.RussianRouletteMinBounces = req.RRMinBounces
	cfg.Device.GroupSize = req.GroupSize
	cfg.Device.Model = model
	return cfg, cfg.Validate()
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// writeJSON encodes v as the response body
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(data)
}

// toStats copies renderer statistics into their JSON form
func toStats(rs renderer.RenderStats) Stats {
	return Stats{
		RenderID:       rs.RenderID,
		TotalPixels:    rs.TotalPixels,
		TotalSamples:   rs.TotalSamples,
		AverageSamples: rs.AverageSamples,
		MaxSamples:     rs.MaxSamples,
		MinSamples:     rs.MinSamples,
		MaxSamplesUsed: rs.MaxSamplesUsed,
		Waves:          rs.Waves,
		Iterations:     rs.Iterations,
		Dispatches:     rs.Dispatches,
	}
}
