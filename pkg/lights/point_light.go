package lights

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// PointLight is an infinitely small lamp radiating equally in all directions
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3 // Radiant intensity
}

// NewPointLight creates a new point light
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

func (pl *PointLight) Type() LightType {
	return LightTypePoint
}

// Sample returns the only direction toward the lamp. The sample is a delta, so
// PDF carries the inverse square falloff: Emission/PDF is the irradiance
// arriving at point.
func (pl *PointLight) Sample(point core.Vec3, sample core.Vec2) LightSample {
	toLight := pl.Position.Subtract(point)
	distance := toLight.Length()
	if distance == 0 {
		return LightSample{Point: pl.Position}
	}

	return LightSample{
		Point:     pl.Position,
		Normal:    toLight.Multiply(-1.0 / distance),
		Direction: toLight.Multiply(1.0 / distance),
		Distance:  distance,
		Emission:  pl.Intensity,
		PDF:       distance * distance,
	}
}
