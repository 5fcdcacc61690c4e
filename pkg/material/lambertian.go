package material

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, hit HitRecord, sample core.Vec2) (ScatterResult, bool) {
	// Generate cosine-weighted direction in hemisphere around normal
	scatterDirection := core.SampleCosineHemisphere(hit.Normal, sample)
	scattered := core.Ray{Origin: hit.Point, Direction: scatterDirection, Time: rayIn.Time}

	// PDF: cos(θ) / π
	cosTheta := scatterDirection.Normalize().Dot(hit.Normal)
	if cosTheta <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: l.Albedo.Multiply(1.0 / math.Pi),
		PDF:         cosTheta / math.Pi,
	}, true
}

// EvaluateBRDF evaluates the BRDF for specific incoming/outgoing directions
func (l *Lambertian) EvaluateBRDF(incomingDir, outgoingDir, normal core.Vec3) core.Vec3 {
	// Lambertian BRDF is constant: albedo / π
	if outgoingDir.Dot(normal) <= 0 {
		return core.Vec3{} // Below surface
	}
	return l.Albedo.Multiply(1.0 / math.Pi)
}

// HasEval is always true for diffuse surfaces
func (l *Lambertian) HasEval() bool {
	return true
}
