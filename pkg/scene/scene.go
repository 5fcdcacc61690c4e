package scene

import (
	"errors"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/lights"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// shadowEpsilon keeps shadow rays off the surfaces at both of their ends
const shadowEpsilon = 0.001

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	World          *geometry.World     // Objects in the scene
	Lights         []lights.Light      // Lights in the scene
	LightSampler   lights.LightSampler // Light sampler
	TopColor       core.Vec3           // Background color straight up
	BottomColor    core.Vec3           // Background color straight down
	SamplingConfig SamplingConfig

	// LightInvRRThreshold enables light termination when positive. Light
	// samples whose contribution falls below 1/threshold are dropped at
	// random and the survivors boosted.
	LightInvRRThreshold float64
}

// SamplingConfig contains the scene's preferred render settings
type SamplingConfig struct {
	Width                     int // Image width
	Height                    int // Image height
	SamplesPerPixel           int // Number of rays per pixel
	MaxDepth                  int // Maximum ray bounce depth
	RussianRouletteMinBounces int // Minimum bounces before Russian Roulette can activate
}

// NewGroundQuad creates a large quad to replace infinite ground planes
// Creates a horizontal quad centered at the given point with normal pointing up (0,1,0)
func NewGroundQuad(center core.Vec3, size float64, material material.Material) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// u × v = (0,size²,0), so the normal points up
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v, material)
}

// Preprocess prepares the scene for rendering
func (s *Scene) Preprocess() error {
	if s.Camera == nil {
		return errors.New("scene has no camera")
	}
	if s.World == nil {
		s.World = geometry.NewWorld()
	}
	if s.LightSampler == nil {
		s.LightSampler = lights.NewUniformLightSampler(s.Lights)
	}
	return nil
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	if s.World == nil {
		return 0
	}
	return len(s.World.Shapes)
}

// AddSphereLight adds a spherical light to the scene
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, emission core.Vec3) {
	emissiveMat := material.NewEmissive(emission)
	sphereLight := lights.NewSphereLight(center, radius, emissiveMat)
	s.Lights = append(s.Lights, sphereLight)
	s.World.Add(sphereLight.Sphere)
}

// AddQuadLight adds a rectangular area light to the scene. It emits on the
// side u × v points to.
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) {
	emissiveMat := material.NewEmissive(emission)
	quadLight := lights.NewQuadLight(corner, u, v, emissiveMat)
	s.Lights = append(s.Lights, quadLight)
	s.World.Add(quadLight.Quad)
}

// AddPointLight adds a point lamp to the scene. Lamps have no geometry.
func (s *Scene) AddPointLight(position, intensity core.Vec3) {
	s.Lights = append(s.Lights, lights.NewPointLight(position, intensity))
}

// Intersect returns the shading data of the closest surface along ray
func (s *Scene) Intersect(ray core.Ray, tMin, tMax float64) (integrator.ShaderData, bool) {
	hit, ok := s.World.Hit(ray, tMin, tMax)
	if !ok {
		return integrator.ShaderData{}, false
	}

	sd := integrator.ShaderData{
		P:        hit.Point,
		N:        hit.Normal,
		I:        ray.Direction,
		T:        hit.T,
		Time:     ray.Time,
		Material: hit.Material,
	}
	if !hit.FrontFace {
		sd.Flag |= integrator.SDBackfacing
	}
	if hit.Material == nil {
		return sd, true
	}
	if hit.Material.HasEval() {
		sd.Flag |= integrator.SDBsdfHasEval
	}
	// Area lights emit from their front face only
	if emitter, ok := hit.Material.(material.Emitter); ok && hit.FrontFace {
		sd.Emission = emitter.Emit(ray)
		if !sd.Emission.IsZero() {
			sd.Flag |= integrator.SDEmission
		}
	}
	return sd, true
}

// Occluded reports whether anything lies on the shadow ray segment
func (s *Scene) Occluded(ray integrator.ShadowRay) bool {
	return s.World.Occluded(ray.Ray, shadowEpsilon, ray.TMax)
}

// BackgroundColor blends between BottomColor and TopColor by ray elevation
func (s *Scene) BackgroundColor(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return s.BottomColor.Multiply(1.0 - t).Add(s.TopColor.Multiply(t))
}

// SampleLight selects a light with randT and a point on it with (randU, randV)
func (s *Scene) SampleLight(randT, randU, randV, time float64, p core.Vec3, bounce int) (integrator.LightSample, bool) {
	sample, light, index, ok := lights.SampleLight(s.LightSampler, p, randT, core.NewVec2(randU, randV))
	if !ok {
		return integrator.LightSample{}, false
	}

	return integrator.LightSample{
		P:          sample.Point,
		N:          sample.Normal,
		D:          sample.Direction,
		T:          sample.Distance,
		Pdf:        sample.PDF,
		Eval:       sample.Emission,
		LightIndex: index,
		Lamp:       light.Type() == lights.LightTypePoint,
	}, true
}

// DirectEmission evaluates the surface toward a light sample and builds the
// shadow ray that decides whether the contribution counts
func (s *Scene) DirectEmission(sd *integrator.ShaderData, ls *integrator.LightSample, ps *integrator.PathState, terminate float64) (integrator.ShadowRay, integrator.BsdfEval, bool, bool) {
	if sd.Material == nil || ls.Pdf <= 0 {
		return integrator.ShadowRay{}, integrator.BsdfEval{}, false, false
	}

	cosTheta := ls.D.Dot(sd.N)
	if cosTheta <= 0 {
		return integrator.ShadowRay{}, integrator.BsdfEval{}, false, false
	}

	f := sd.Material.EvaluateBRDF(sd.I, ls.D, sd.N)
	contribution := f.MultiplyVec(ls.Eval).Multiply(cosTheta / ls.Pdf)
	if contribution.IsZero() {
		return integrator.ShadowRay{}, integrator.BsdfEval{}, false, false
	}

	var eval integrator.BsdfEval
	if _, ok := sd.Material.(*material.Lambertian); ok {
		eval.Diffuse = contribution
	} else {
		eval.Glossy = contribution
	}

	// Light termination: weak samples survive with probability proportional
	// to their strength and are boosted to stay unbiased
	if s.LightInvRRThreshold > 0 {
		probability := eval.Sum().MaxComponent() * s.LightInvRRThreshold
		if probability < 1 {
			if terminate >= probability {
				return integrator.ShadowRay{}, integrator.BsdfEval{}, false, false
			}
			eval = eval.Scale(1 / probability)
		}
	}

	ray := integrator.ShadowRay{
		Ray:  core.NewRay(sd.P, ls.D),
		TMax: ls.T - shadowEpsilon,
	}
	return ray, eval, ls.Lamp, true
}
