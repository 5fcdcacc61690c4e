package lights

import (
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

func TestUniformLightSampler_SampleLight(t *testing.T) {
	a := NewPointLight(core.NewVec3(0, 1, 0), core.NewVec3(1, 1, 1))
	b := NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(1, 1, 1))
	c := NewPointLight(core.NewVec3(0, 3, 0), core.NewVec3(1, 1, 1))
	sampler := NewUniformLightSampler([]Light{a, b, c})

	tests := []struct {
		u        float64
		expected int
	}{
		{0.0, 0},
		{0.33, 0},
		{0.34, 1},
		{0.7, 2},
		{0.999999, 2},
		{1.0, 2},
	}

	for _, tt := range tests {
		light, pdf, index := sampler.SampleLight(tt.u)
		if index != tt.expected {
			t.Errorf("u=%f: expected light %d, got %d", tt.u, tt.expected, index)
		}
		if light == nil || pdf != 1.0/3.0 {
			t.Errorf("u=%f: expected selection pdf 1/3, got %f", tt.u, pdf)
		}
	}

	if sampler.GetLightCount() != 3 {
		t.Errorf("Expected 3 lights, got %d", sampler.GetLightCount())
	}
}

func TestSampleLight_NoLights(t *testing.T) {
	_, light, index, ok := SampleLight(NewUniformLightSampler(nil), core.Vec3{}, 0.5, core.NewVec2(0.5, 0.5))
	if ok || light != nil || index != -1 {
		t.Errorf("Expected no sample from an empty sampler, got ok=%v index=%d", ok, index)
	}
}

func TestSampleLight_IncludesSelectionProbability(t *testing.T) {
	near := NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(4, 4, 4))
	far := NewPointLight(core.NewVec3(0, 10, 0), core.NewVec3(4, 4, 4))
	sampler := NewUniformLightSampler([]Light{near, far})

	ls, light, index, ok := SampleLight(sampler, core.Vec3{}, 0.1, core.NewVec2(0.5, 0.5))
	if !ok || index != 0 || light != near {
		t.Fatalf("Expected first light, got ok=%v index=%d", ok, index)
	}
	// distance² * selection pdf
	if ls.PDF != 4*0.5 {
		t.Errorf("Expected pdf 2, got %f", ls.PDF)
	}
}

func TestSampleLight_RejectsZeroEmission(t *testing.T) {
	dark := NewPointLight(core.NewVec3(0, 1, 0), core.Vec3{})
	_, _, _, ok := SampleLight(NewUniformLightSampler([]Light{dark}), core.Vec3{}, 0.5, core.Vec2{})
	if ok {
		t.Error("Expected a black lamp to produce no sample")
	}
}
