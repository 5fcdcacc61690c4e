package lights

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// QuadLight represents a rectangular area light
type QuadLight struct {
	*geometry.Quad         // Embed quad for hit testing
	Area           float64 // Cached area for PDF calculations
}

// NewQuadLight creates a new quad light
func NewQuadLight(corner, u, v core.Vec3, material material.Material) *QuadLight {
	quad := geometry.NewQuad(corner, u, v, material)
	return &QuadLight{
		Quad: quad,
		Area: quad.Area(),
	}
}

func (ql *QuadLight) Type() LightType {
	return LightTypeArea
}

// Sample implements the Light interface - samples a point on the quad for direct lighting
func (ql *QuadLight) Sample(point core.Vec3, sample core.Vec2) LightSample {
	// Sample uniformly on the quad surface
	samplePoint := ql.Corner.Add(ql.U.Multiply(sample.X)).Add(ql.V.Multiply(sample.Y))

	toLight := samplePoint.Subtract(point)
	distance := toLight.Length()
	direction := toLight.Multiply(1.0 / distance)

	// Light is edge-on, no contribution
	cosTheta := math.Abs(ql.Normal.Dot(direction))
	if cosTheta < 1e-8 {
		return LightSample{Point: samplePoint, Normal: ql.Normal, Direction: direction, Distance: distance}
	}

	// PDF_solid_angle = PDF_area * distance² / |cos(θ)|
	solidAnglePDF := (1.0 / ql.Area) * distance * distance / cosTheta

	// Only emit from the front face, where the direction opposes the normal
	var emission core.Vec3
	if direction.Dot(ql.Normal) < 0 {
		emission = emitted(ql.Material, core.NewRay(point, direction))
	}

	return LightSample{
		Point:     samplePoint,
		Normal:    ql.Normal,
		Direction: direction,
		Distance:  distance,
		Emission:  emission,
		PDF:       solidAnglePDF,
	}
}

// emitted returns the emission of m, or zero for non-emissive materials
func emitted(m material.Material, ray core.Ray) core.Vec3 {
	if emitter, ok := m.(material.Emitter); ok {
		return emitter.Emit(ray)
	}
	return core.Vec3{}
}
