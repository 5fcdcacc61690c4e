package lights

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// UniformLightSampler selects every light with equal probability
type UniformLightSampler struct {
	lights []Light
}

// NewUniformLightSampler creates a light sampler with equal weights for all lights
func NewUniformLightSampler(lights []Light) *UniformLightSampler {
	return &UniformLightSampler{lights: lights}
}

// SampleLight maps u in [0, 1) onto one of the lights
func (s *UniformLightSampler) SampleLight(u float64) (Light, float64, int) {
	n := len(s.lights)
	if n == 0 {
		return nil, 0, -1
	}
	index := min(int(u*float64(n)), n-1)
	return s.lights[index], 1.0 / float64(n), index
}

// GetLightCount returns the number of lights in this sampler
func (s *UniformLightSampler) GetLightCount() int {
	return len(s.lights)
}

// SampleLight selects and samples a light. The returned PDF includes the
// selection probability. It reports false when there is nothing to sample
// or the sample cannot contribute.
func SampleLight(sampler LightSampler, point core.Vec3, u float64, sample core.Vec2) (LightSample, Light, int, bool) {
	if sampler.GetLightCount() == 0 {
		return LightSample{}, nil, -1, false
	}
	light, selectionPdf, index := sampler.SampleLight(u)

	ls := light.Sample(point, sample)
	if ls.PDF <= 0 || ls.Emission.IsZero() {
		return LightSample{}, light, index, false
	}
	ls.PDF *= selectionPdf // Combined PDF

	return ls, light, index, true
}
