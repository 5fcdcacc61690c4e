package renderer

import (
	"context"
	"testing"
)

func TestProgressiveSampleCalculation(t *testing.T) {
	config := DefaultProgressiveConfig()
	config.InitialSamples = 1
	config.MaxSamplesPerPixel = 50
	config.MaxPasses = 7

	// Pass 1: 1 sample
	// Pass 2-6: (50-1)/6 = 8.16 -> 8 samples per pass -> 1 + 8*1 = 9, 1 + 8*2 = 17, etc.
	// Pass 7: 50 (final pass gets all remaining)
	expectedTotalSamples := []int{1, 9, 17, 25, 33, 41, 50}

	for pass := 1; pass <= 7; pass++ {
		totalSamples := config.getSamplesForPass(pass)

		if totalSamples != expectedTotalSamples[pass-1] {
			t.Errorf("Pass %d: expected %d total samples, got %d",
				pass, expectedTotalSamples[pass-1], totalSamples)
		}
	}
}

func TestProgressiveSampleCalculation_SinglePass(t *testing.T) {
	config := ProgressiveConfig{InitialSamples: 1, MaxSamplesPerPixel: 12, MaxPasses: 1}

	if got := config.getSamplesForPass(1); got != 12 {
		t.Errorf("Expected a single pass to take all 12 samples, got %d", got)
	}
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.InitialSamples != 1 {
		t.Errorf("Expected default initial samples 1, got %d", config.InitialSamples)
	}

	if config.MaxSamplesPerPixel != 16 {
		t.Errorf("Expected default max samples 16, got %d", config.MaxSamplesPerPixel)
	}

	if config.MaxPasses != 4 {
		t.Errorf("Expected default max passes 4, got %d", config.MaxPasses)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestProgressiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config ProgressiveConfig
		valid  bool
	}{
		{"single pass ignores initial samples", ProgressiveConfig{MaxSamplesPerPixel: 4, MaxPasses: 1}, true},
		{"no passes", ProgressiveConfig{InitialSamples: 1, MaxSamplesPerPixel: 4}, false},
		{"no samples", ProgressiveConfig{InitialSamples: 1, MaxPasses: 2}, false},
		{"initial above max", ProgressiveConfig{InitialSamples: 8, MaxSamplesPerPixel: 4, MaxPasses: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestRenderProgressive(t *testing.T) {
	r := newTestRenderer(t, newBackgroundScene(), testConfig())
	config := ProgressiveConfig{InitialSamples: 1, MaxSamplesPerPixel: 5, MaxPasses: 3}

	passes, errs := RenderProgressive(context.Background(), r, config)

	var results []PassResult
	for result := range passes {
		results = append(results, result)
	}
	for err := range errs {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 1, then 1+2=3, then 5
	expected := []int{1, 3, 5}
	if len(results) != len(expected) {
		t.Fatalf("Expected %d passes, got %d", len(expected), len(results))
	}
	for i, result := range results {
		if result.PassNumber != i+1 {
			t.Errorf("Expected pass %d, got %d", i+1, result.PassNumber)
		}
		if result.Stats.MinSamples != expected[i] || result.Stats.MaxSamplesUsed != expected[i] {
			t.Errorf("Pass %d: expected %d samples per pixel, got %d-%d",
				result.PassNumber, expected[i], result.Stats.MinSamples, result.Stats.MaxSamplesUsed)
		}
		if result.IsLast != (i == len(expected)-1) {
			t.Errorf("Pass %d: unexpected IsLast %v", result.PassNumber, result.IsLast)
		}
	}
}

func TestRenderProgressive_Cancelled(t *testing.T) {
	r := newTestRenderer(t, newBackgroundScene(), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passes, errs := RenderProgressive(ctx, r, DefaultProgressiveConfig())
	for range passes {
		t.Error("Expected no pass after cancellation")
	}
	if err := <-errs; err == nil {
		t.Error("Expected a cancellation error")
	}
}
