package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "waves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testWave(renderID string, wave int) renderer.WaveStats {
	return renderer.WaveStats{
		RenderID:   renderID,
		Wave:       wave,
		Sample:     wave / 2,
		FirstPixel: (wave % 2) * 100,
		NumPixels:  100,
		Iterations: 2,
		Duration:   3 * time.Millisecond,
		Stages: []renderer.StageRun{
			{Iteration: 0, Kernel: "generate_rays", QueueSize: 100, Groups: 2, Threads: 128, Duration: time.Millisecond},
			{Iteration: 1, Kernel: "direct_lighting", QueueSize: 60, Groups: 1, Threads: 64, Duration: time.Millisecond},
			{Iteration: 2, Kernel: "direct_lighting", QueueSize: 20, Groups: 1, Threads: 64, Duration: time.Millisecond},
		},
	}
}

func TestStore_RecordWave(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.RecordWave(ctx, testWave("a", 0)))
	require.NoError(t, s.RecordWave(ctx, testWave("a", 1)))
	require.NoError(t, s.RecordWave(ctx, testWave("b", 0)))

	waves, err := s.Waves(ctx, "a")
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.Equal(t, Wave{Wave: 1, Sample: 0, FirstPixel: 100, NumPixels: 100, Iterations: 2, Duration: 3 * time.Millisecond}, waves[1])

	stages, err := s.StageRuns(ctx, "a")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, StageSummary{Kernel: "direct_lighting", Runs: 4, QueueTotal: 160, Threads: 256, Duration: 4 * time.Millisecond}, stages[0])
	assert.Equal(t, StageSummary{Kernel: "generate_rays", Runs: 2, QueueTotal: 200, Threads: 256, Duration: 2 * time.Millisecond}, stages[1])
}

func TestStore_RecordWaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.RecordWave(ctx, testWave("a", 0)))

	// Same key again: the whole wave is rejected
	assert.Error(t, s.RecordWave(ctx, testWave("a", 0)))

	stages, err := s.StageRuns(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, stages[1].Runs)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "waves.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordWave(ctx, testWave("a", 0)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	waves, err := s.Waves(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, waves, 1)
}

func TestStore_ExportJSON(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.RecordWave(ctx, testWave("a", 0)))

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &buf, "a"))

	var report Report
	require.NoError(t, sonnet.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "a", report.RenderID)
	assert.Len(t, report.Waves, 1)
	assert.Len(t, report.Stages, 2)
	assert.Contains(t, buf.String(), `"kernel":"generate_rays"`)
}

func TestStore_RecordsRender(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	sc := &scene.Scene{
		Camera:      geometry.NewCamera(geometry.CameraConfig{LookAt: core.NewVec3(0, 0, -1)}),
		World:       geometry.NewWorld(),
		TopColor:    core.NewVec3(1, 1, 1),
		BottomColor: core.NewVec3(1, 1, 1),
	}
	require.NoError(t, sc.Preprocess())

	cfg := renderer.DefaultConfig()
	cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.Capacity = 4, 4, 3, 8
	cfg.Device = kernel.Config{GroupSize: 4, Model: kernel.LockStep, Workers: 2}

	r, err := renderer.NewWavefrontRenderer(sc, sc.Camera, cfg)
	require.NoError(t, err)
	defer r.Close()
	var _ renderer.WaveRecorder = s
	r.SetRecorder(s)

	_, stats, err := r.Render(ctx)
	require.NoError(t, err)

	waves, err := s.Waves(ctx, r.RenderID())
	require.NoError(t, err)
	assert.Len(t, waves, stats.Waves)
	assert.Equal(t, 6, stats.Waves)

	stages, err := s.StageRuns(ctx, r.RenderID())
	require.NoError(t, err)
	runs := make(map[string]int)
	for _, st := range stages {
		runs[st.Kernel] = st.Runs
	}
	assert.Equal(t, 6, runs["generate_rays"])
	assert.Equal(t, 6, runs["sum_radiance"])
	assert.Equal(t, 6, runs["background_buffer_update"])
}
