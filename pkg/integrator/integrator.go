package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// Config holds the integrator settings read by the pipeline stages
type Config struct {
	UseDirectLight            bool    // Sample lights at every diffuse hit
	MaxBounce                 int     // Scattering events before a path is retired
	RussianRouletteMinBounces int     // Bounces before Russian roulette may end a path
	LightInvRRThreshold       float64 // Light termination threshold, 0 disables it
	MotionBlur                bool    // Rays carry a time sample
}

// DefaultConfig returns direct lighting with four bounces
func DefaultConfig() Config {
	return Config{
		UseDirectLight:            true,
		MaxBounce:                 4,
		RussianRouletteMinBounces: 3,
	}
}

// PathState is the per-slot progress of one path
type PathState struct {
	Sample     int  // Sample index of the pixel
	NumSamples int  // Samples per pixel of the render
	RngOffset  int  // First RNG dimension of the current bounce
	Bounce     int  // Scattering events so far
	Specular   bool // The last scattering event was a delta reflection
}

// Draw1D draws dimension (relative to the current bounce) of the path's stream
func (ps *PathState) Draw1D(rng RNG, hash uint32, dimension int) float64 {
	return rng.Draw1D(hash, ps.Sample, ps.RngOffset+dimension)
}

// Draw2D draws dimensions dimension and dimension+1 of the path's stream
func (ps *PathState) Draw2D(rng RNG, hash uint32, dimension int) (float64, float64) {
	return rng.Draw2D(hash, ps.Sample, ps.RngOffset+dimension)
}

// ShaderFlag describes the shaded point
type ShaderFlag uint32

const (
	SDBsdfHasEval ShaderFlag = 1 << iota // The BSDF can be evaluated toward a light
	SDEmission                           // The surface emits light
	SDBackfacing                         // The ray hit the back face
)

// ShaderData describes the surface point a ray hit
type ShaderData struct {
	P        core.Vec3 // Hit position
	N        core.Vec3 // Shading normal, facing the incoming ray
	I        core.Vec3 // Incoming ray direction
	T        float64   // Ray parameter of the hit
	Time     float64   // Time of the incoming ray
	Flag     ShaderFlag
	Material material.Material
	Emission core.Vec3 // Emitted radiance toward the incoming ray
}

// LightSample is a point chosen on a light as seen from a shading point
type LightSample struct {
	P          core.Vec3 // Point on the light
	N          core.Vec3 // Light normal at P
	D          core.Vec3 // Unit direction from the shading point to P
	T          float64   // Distance to P
	Pdf        float64   // Solid angle density including light selection
	Eval       core.Vec3 // Radiance arriving along D
	LightIndex int
	Lamp       bool // Point lamp rather than emissive geometry
}

// ShadowRay is a segment that must be unoccluded for a light contribution to count
type ShadowRay struct {
	core.Ray
	TMax float64
}

// BsdfEval is a light contribution split by lobe, already divided by the light pdf
type BsdfEval struct {
	Diffuse core.Vec3
	Glossy  core.Vec3
}

// Sum returns the total contribution
func (e BsdfEval) Sum() core.Vec3 {
	return e.Diffuse.Add(e.Glossy)
}

// Scale multiplies every lobe by f
func (e BsdfEval) Scale(f float64) BsdfEval {
	return BsdfEval{Diffuse: e.Diffuse.Multiply(f), Glossy: e.Glossy.Multiply(f)}
}

// IsZero reports whether no lobe contributes
func (e BsdfEval) IsZero() bool {
	return e.Diffuse.IsZero() && e.Glossy.IsZero()
}

// PathRadiance accumulates the radiance of one path by source
type PathRadiance struct {
	Emission       core.Vec3 // Emitters hit directly by the path
	Background     core.Vec3 // Background seen by the path
	DirectLamp     core.Vec3 // Light samples on point lamps
	DirectEmission core.Vec3 // Light samples on emissive geometry
}

// Sum returns the total radiance
func (r PathRadiance) Sum() core.Vec3 {
	return r.Emission.Add(r.Background).Add(r.DirectLamp).Add(r.DirectEmission)
}

// LightSampler picks a point on a light from three uniform numbers
type LightSampler interface {
	SampleLight(randT, randU, randV, time float64, p core.Vec3, bounce int) (LightSample, bool)
}

// DirectEmitter turns a light sample into a shadow ray and BSDF contribution.
// It reports isLamp, and ok=false when the sample contributes nothing.
type DirectEmitter interface {
	DirectEmission(sd *ShaderData, ls *LightSample, ps *PathState, terminate float64) (ray ShadowRay, eval BsdfEval, isLamp bool, ok bool)
}

// Lighting is the part of the scene used by direct lighting
type Lighting interface {
	LightSampler
	DirectEmitter
}

// Intersector finds the closest surface along a ray
type Intersector interface {
	Intersect(ray core.Ray, tMin, tMax float64) (ShaderData, bool)
}

// Occluder answers shadow ray queries
type Occluder interface {
	Occluded(ray ShadowRay) bool
}

// Background returns the radiance of rays that leave the scene
type Background interface {
	BackgroundColor(ray core.Ray) core.Vec3
}

// Scene is everything the stages need from the scene
type Scene interface {
	Lighting
	Intersector
	Occluder
	Background
}

// RNG is a stateless random stream keyed by a per-pixel hash
type RNG interface {
	Draw1D(hash uint32, sample, dimension int) float64
	Draw2D(hash uint32, sample, dimension int) (float64, float64)
}

// Camera generates primary rays for normalized film coordinates
type Camera interface {
	GetRay(s, t float64, lens core.Vec2, time float64) core.Ray
}

// Film receives the finished radiance of each path
type Film interface {
	AddSample(pixel int, color core.Vec3)
}
