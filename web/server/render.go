package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
	"github.com/sugawarayuuta/sonnet"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// PassUpdate is sent after every progressive pass
type PassUpdate struct {
	PassNumber     int    `json:"passNumber"`
	TotalPasses    int    `json:"totalPasses"`
	ImageData      string `json:"imageData"` // Base64 encoded PNG
	Stats          Stats  `json:"stats"`
	IsComplete     bool   `json:"isComplete"`
	ElapsedMs      int64  `json:"elapsedMs"`
	PrimitiveCount int    `json:"primitiveCount"`
}

// RenderingPipeline contains the configured scene and renderer
type RenderingPipeline struct {
	Scene    *scene.Scene
	Renderer *renderer.WavefrontRenderer
}

// handleRender handles progressive rendering with per-wave console streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})

	// Start single SSE writer goroutine; the handler must not return before it
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	// Parse and validate request
	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	pipeline, err := s.setupRenderingPipeline(req)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	defer pipeline.Renderer.Close()

	// Setup console streaming of finished waves
	consoleChan := make(chan ConsoleMessage, 50)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	if s.store != nil {
		pipeline.Renderer.SetRecorder(NewWaveConsole(pipeline.Renderer.RenderID(), consoleChan, s.store))
	} else {
		pipeline.Renderer.SetRecorder(NewWaveConsole(pipeline.Renderer.RenderID(), consoleChan, nil))
	}

	// Start rendering and stream events
	startTime := time.Now()
	progressive := renderer.ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: req.MaxSamples,
		MaxPasses:          req.MaxPasses,
	}
	passChan, errChan := renderer.RenderProgressive(ctx, pipeline.Renderer, progressive)

	// Handle rendering events and send to unified channel
	s.handleRenderingEvents(ctx, sseEventChan, passChan, errChan, pipeline.Scene, req, startTime)

	// The render goroutine has exited, so no more waves will be recorded
	close(consoleChan)
	<-consoleDone

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: pipeline.Renderer.RenderID()}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan chan SSEEvent) {
	for event := range sseEventChan {
		// Check if client is still connected before writing
		if ctx.Err() != nil {
			continue
		}

		// Write SSE event
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := sonnet.Marshal(consoleMsg)
		if err != nil {
			core.Logger().Warn("failed to marshal console message", "error", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		}
	}
}

// setupRenderingPipeline creates and configures the scene and renderer
func (s *Server) setupRenderingPipeline(req *RenderRequest) (*RenderingPipeline, error) {
	sceneObj, err := scene.New(req.Scene, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	cfg, err := req.renderConfig()
	if err != nil {
		return nil, err
	}

	wavefront, err := renderer.NewWavefrontRenderer(sceneObj, sceneObj.Camera, cfg)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{
		Scene:    sceneObj,
		Renderer: wavefront,
	}, nil
}

// handleRenderingEvents processes the main rendering event loop. It returns
// once the render goroutine has closed both channels.
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan SSEEvent,
	passChan <-chan renderer.PassResult, errChan <-chan error,
	scene *scene.Scene, req *RenderRequest, startTime time.Time) {

	for passResult := range passChan {
		s.handlePassComplete(ctx, sseEventChan, passResult, req, scene, startTime)
	}
	if err := <-errChan; err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
	}
}

// handlePassComplete processes and sends pass completion events
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan SSEEvent, passResult renderer.PassResult, req *RenderRequest, scene *scene.Scene, startTime time.Time) {
	// Check if client is still connected
	if ctx.Err() != nil {
		return
	}

	imageData, err := s.imageToBase64PNG(passResult.Image)
	if err != nil {
		core.Logger().Warn("failed to encode pass image", "pass", passResult.PassNumber, "error", err)
		return
	}

	update := PassUpdate{
		PassNumber:     passResult.PassNumber,
		TotalPasses:    req.MaxPasses,
		ImageData:      imageData,
		Stats:          toStats(passResult.Stats),
		IsComplete:     passResult.IsLast,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		PrimitiveCount: scene.GetPrimitiveCount(),
	}

	data, err := sonnet.Marshal(update)
	if err != nil {
		core.Logger().Warn("failed to marshal pass update", "error", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "passComplete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
