package material

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Material interface for surfaces that reflect light
type Material interface {
	// Scatter samples a continuation ray from two uniform numbers
	Scatter(rayIn core.Ray, hit HitRecord, sample core.Vec2) (ScatterResult, bool)

	// EvaluateBRDF evaluates the BRDF for light arriving along incomingDir and
	// leaving toward outgoingDir
	EvaluateBRDF(incomingDir, outgoingDir, normal core.Vec3) core.Vec3

	// HasEval reports whether EvaluateBRDF can return a non-zero value, that
	// is whether the surface can be lit by sampling a light. Delta
	// reflectors and pure emitters return false.
	HasEval() bool
}

// Emitter interface for materials that emit light
type Emitter interface {
	Emit(rayIn core.Ray) core.Vec3
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // BRDF value, or the reflectance for specular scattering
	PDF         float64   // Probability density function (0 for specular materials)
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s ScatterResult) IsSpecular() bool {
	return s.PDF <= 0
}

// Weight returns the throughput multiplier of the scattered ray: f·cos/pdf,
// or the plain attenuation for specular scattering
func (s ScatterResult) Weight(normal core.Vec3) core.Vec3 {
	if s.IsSpecular() {
		return s.Attenuation
	}
	cosTheta := s.Scattered.Direction.Normalize().Dot(normal)
	if cosTheta <= 0 {
		return core.Vec3{}
	}
	return s.Attenuation.Multiply(cosTheta / s.PDF)
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal at intersection, facing the ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Material  Material  // Material of the hit object
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Multiply(-1)
	}
}
