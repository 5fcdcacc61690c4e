package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/scene"
	"github.com/df07/go-wavefront-raytracer/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"
)

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// parseEvents splits an SSE body into its events
func parseEvents(t *testing.T, body string) []SSEEvent {
	t.Helper()
	var events []SSEEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		lines := strings.SplitN(block, "\n", 2)
		require.Len(t, lines, 2, "malformed event %q", block)
		events = append(events, SSEEvent{
			Type: strings.TrimPrefix(lines[0], "event: "),
			Data: strings.TrimPrefix(lines[1], "data: "),
		})
	}
	return events
}

func eventsOfType(events []SSEEvent, eventType string) []SSEEvent {
	var matched []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func TestServer_Health(t *testing.T) {
	rec := get(t, NewServer(0, nil), "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Scenes(t *testing.T) {
	rec := get(t, NewServer(0, nil), "/api/scenes")
	require.Equal(t, http.StatusOK, rec.Code)

	var scenes []scene.SceneInfo
	require.NoError(t, sonnet.Unmarshal(rec.Body.Bytes(), &scenes))
	assert.Equal(t, scene.ListScenes(), scenes)
}

func TestServer_ParseRenderRequest(t *testing.T) {
	s := NewServer(0, nil)

	req, err := s.parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render", nil))
	require.NoError(t, err)
	assert.Equal(t, "cornell", req.Scene)
	assert.True(t, req.UseDirectLight)
	_, err = req.renderConfig()
	assert.NoError(t, err)

	req, err = s.parseRenderRequest(httptest.NewRequest(http.MethodGet,
		"/api/render?scene=default&width=32&height=16&maxSamples=4&model=lock-step&directLight=false&groupSize=8", nil))
	require.NoError(t, err)
	cfg, err := req.renderConfig()
	require.NoError(t, err)
	assert.Equal(t, "default", req.Scene)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 16, cfg.Height)
	assert.Equal(t, 4, cfg.SamplesPerPixel)
	assert.Equal(t, 8, cfg.Device.GroupSize)
	assert.Equal(t, "lock-step", cfg.Device.Model.String())
	assert.False(t, cfg.Integrator.UseDirectLight)

	for _, query := range []string{"width=abc", "width=0", "maxPasses=-1", "directLight=maybe", "groupSize=4096"} {
		_, err := s.parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render?"+query, nil))
		assert.Error(t, err, query)
	}

	req, err = s.parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render?model=simd", nil))
	require.NoError(t, err)
	_, err = req.renderConfig()
	assert.Error(t, err)
}

func TestServer_Render(t *testing.T) {
	rec := get(t, NewServer(0, nil), "/api/render?scene=cornell&width=8&height=6&maxSamples=2&maxPasses=2&groupSize=4")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseEvents(t, rec.Body.String())
	require.Empty(t, eventsOfType(events, "error"))

	passes := eventsOfType(events, "passComplete")
	require.Len(t, passes, 2)
	var last PassUpdate
	require.NoError(t, sonnet.Unmarshal([]byte(passes[1].Data), &last))
	assert.Equal(t, 2, last.PassNumber)
	assert.True(t, last.IsComplete)
	assert.NotEmpty(t, last.ImageData)
	assert.Equal(t, 48, last.Stats.TotalPixels)
	assert.Equal(t, 96, last.Stats.TotalSamples)
	// 48 pixels fit in one wave per sample
	assert.Equal(t, 2, last.Stats.Waves)

	// One console message per wave
	assert.Len(t, eventsOfType(events, "console"), 2)

	complete := events[len(events)-1]
	assert.Equal(t, "complete", complete.Type)
	assert.Equal(t, last.Stats.RenderID, complete.Data)
}

func TestServer_RenderErrors(t *testing.T) {
	s := NewServer(0, nil)
	for _, query := range []string{"scene=nope", "width=abc", "model=simd"} {
		t.Run(query, func(t *testing.T) {
			events := parseEvents(t, get(t, s, "/api/render?"+query).Body.String())
			require.Len(t, events, 1)
			assert.Equal(t, "error", events[0].Type)
		})
	}
}

func TestServer_Stats(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, NewServer(0, nil), "/api/stats?render_id=x").Code)

	store, err := stats.Open(filepath.Join(t.TempDir(), "waves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	s := NewServer(0, store)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/stats").Code)

	events := parseEvents(t, get(t, s, "/api/render?width=8&height=6&maxSamples=3&maxPasses=3&capacity=20").Body.String())
	complete := events[len(events)-1]
	require.Equal(t, "complete", complete.Type)

	rec := get(t, s, "/api/stats?render_id="+complete.Data)
	require.Equal(t, http.StatusOK, rec.Code)
	var report stats.Report
	require.NoError(t, sonnet.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, complete.Data, report.RenderID)
	// 48 pixels in waves of 20 slots: three waves per sample
	assert.Len(t, report.Waves, 9)
	assert.NotEmpty(t, report.Stages)
}

func TestServer_Inspect(t *testing.T) {
	s := NewServer(0, nil)

	rec := get(t, s, "/api/inspect?scene=cornell&width=16&height=16")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp InspectResponse
	require.NoError(t, sonnet.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Hit)
	assert.Equal(t, "lambertian", resp.MaterialType)
	assert.True(t, resp.HasEval)
	assert.InDelta(t, 555, resp.Point[2], 1e-6)
	assert.Equal(t, "#bababa", resp.Properties["color"])

	for _, query := range []string{"width=16&height=16&x=16", "width=16&height=16&y=-1", "scene=nope", "width=0"} {
		assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/inspect?"+query).Code, query)
	}
}

func TestInspectPixel_Miss(t *testing.T) {
	s, err := scene.New("default", 16, 16)
	require.NoError(t, err)

	// The top row of the default scene looks at the sky
	resp := inspectPixel(s, 16, 16, 8, 0)
	assert.False(t, resp.Hit)
	assert.Greater(t, resp.Background[2], 0.0)
	assert.False(t, math.IsNaN(resp.Background[0]))
}
