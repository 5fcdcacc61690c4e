package lights

import "github.com/df07/go-wavefront-raytracer/pkg/core"

type LightType string

const (
	LightTypeArea  LightType = "area"
	LightTypePoint LightType = "point"
)

// Light interface for objects that can be sampled for direct lighting
type Light interface {
	Type() LightType

	// Sample samples light toward a specific point for direct lighting
	// Returns LightSample with direction FROM shading point TO light
	Sample(point core.Vec3, sample core.Vec2) LightSample
}

// LightSample contains information about a sampled point on a light
type LightSample struct {
	Point     core.Vec3 // Point on the light source
	Normal    core.Vec3 // Normal at the light sample point
	Direction core.Vec3 // Direction from shading point to light
	Distance  float64   // Distance to light
	Emission  core.Vec3 // Emitted light
	PDF       float64   // Solid angle density of this sample, distance² for point lights
}

// LightSampler interface for different light sampling strategies
type LightSampler interface {
	// SampleLight selects a light and returns the light, selection probability, and light index
	SampleLight(u float64) (Light, float64, int)

	// GetLightCount returns the number of lights in this sampler
	GetLightCount() int
}
