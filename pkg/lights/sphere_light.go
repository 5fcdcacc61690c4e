package lights

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// SphereLight represents a spherical area light
type SphereLight struct {
	*geometry.Sphere // Embed sphere for hit testing
}

// NewSphereLight creates a new spherical light
func NewSphereLight(center core.Vec3, radius float64, material material.Material) *SphereLight {
	return &SphereLight{
		Sphere: geometry.NewSphere(center, radius, material),
	}
}

func (sl *SphereLight) Type() LightType {
	return LightTypeArea
}

// Sample implements the Light interface - samples a point on the sphere for direct lighting
func (sl *SphereLight) Sample(point core.Vec3, sample core.Vec2) LightSample {
	// Points inside the sphere see all of it
	if sl.Center.Subtract(point).Length() <= sl.Radius {
		return sl.sampleUniform(point, sample)
	}
	return sl.sampleVisible(point, sample)
}

// sampleUniform samples uniformly on the entire sphere surface
func (sl *SphereLight) sampleUniform(point core.Vec3, sample core.Vec2) LightSample {
	normal := core.SampleOnUnitSphere(sample)
	samplePoint := sl.Center.Add(normal.Multiply(sl.Radius))

	toLight := samplePoint.Subtract(point)
	distance := toLight.Length()
	direction := toLight.Multiply(1.0 / distance)

	cosTheta := math.Abs(normal.Dot(direction))
	if cosTheta < 1e-8 {
		return LightSample{Point: samplePoint, Normal: normal, Direction: direction, Distance: distance}
	}

	// Area density 1/(4πr²) converted to solid angle
	areaPDF := 1.0 / (4.0 * math.Pi * sl.Radius * sl.Radius)

	return LightSample{
		Point:     samplePoint,
		Normal:    normal,
		Direction: direction,
		Distance:  distance,
		Emission:  emitted(sl.Material, core.NewRay(point, direction)),
		PDF:       areaPDF * distance * distance / cosTheta,
	}
}

// sampleVisible samples the cone of directions subtended by the sphere
func (sl *SphereLight) sampleVisible(point core.Vec3, sample core.Vec2) LightSample {
	toCenter := sl.Center.Subtract(point)
	distanceToCenter := toCenter.Length()

	// Half-angle of the cone subtended by the sphere
	sinThetaMax := sl.Radius / distanceToCenter
	cosThetaMax := math.Sqrt(math.Max(0, 1.0-sinThetaMax*sinThetaMax))

	direction := core.SampleCone(toCenter.Multiply(1.0/distanceToCenter), cosThetaMax, sample)

	ray := core.NewRay(point, direction)
	hitRecord, hit := sl.Sphere.Hit(ray, 0.001, math.Inf(1))
	if !hit {
		// Grazing numerical miss
		return sl.sampleUniform(point, sample)
	}

	return LightSample{
		Point:     hitRecord.Point,
		Normal:    hitRecord.Normal,
		Direction: direction,
		Distance:  hitRecord.T,
		Emission:  emitted(sl.Material, ray),
		PDF:       core.UniformConePDF(cosThetaMax),
	}
}
