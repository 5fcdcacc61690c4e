package material

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Emissive represents a light-emitting material
type Emissive struct {
	Emission core.Vec3 // Emitted light color/intensity
}

// NewEmissive creates a new emissive material
func NewEmissive(emission core.Vec3) *Emissive {
	return &Emissive{Emission: emission}
}

// Scatter implements the Material interface. Emissive materials absorb all incoming rays.
func (e *Emissive) Scatter(rayIn core.Ray, hit HitRecord, sample core.Vec2) (ScatterResult, bool) {
	return ScatterResult{}, false
}

// Emit returns the emitted light for this material
func (e *Emissive) Emit(rayIn core.Ray) core.Vec3 {
	return e.Emission
}

// EvaluateBRDF evaluates the BRDF for specific incoming/outgoing directions
func (e *Emissive) EvaluateBRDF(incomingDir, outgoingDir, normal core.Vec3) core.Vec3 {
	// Lights don't reflect - they only emit
	return core.Vec3{}
}

// HasEval is false for lights
func (e *Emissive) HasEval() bool {
	return false
}
