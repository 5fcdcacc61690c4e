package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// DirectLighting samples one light for every active ray whose surface can be
// evaluated, and defers the visibility test to the shadow stage. Rays that
// found a contribution are flagged and published to the direct-lighting
// shadow queue, which must be empty when the stage starts. The input queue
// is only read.
type DirectLighting struct {
	State  *SplitState
	Scene  Lighting
	RNG    RNG
	Config Config
}

func (k *DirectLighting) Name() string { return "direct_lighting" }

func (k *DirectLighting) LocalAtomics() int { return 1 }

func (k *DirectLighting) Run(t *kernel.Thread) {
	slot, exit := k.State.dequeue(t, kernel.QueueActiveAndRegeneratedRays)
	if exit {
		return
	}

	enqueue := false
	if slot != kernel.EmptySlot && k.State.RayState.IsState(slot, kernel.RayActive) {
		enqueue = k.shade(slot)
	}

	kernel.EnqueueLocal(t, k.State.Queues, kernel.QueueShadowRayCastDLRays, slot, enqueue, 0)
}

// shade prepares the shadow ray of one slot and reports whether it must be cast
func (k *DirectLighting) shade(slot int) bool {
	s := k.State
	sd := &s.ShaderData[slot]
	if !k.Config.UseDirectLight || sd.Flag&SDBsdfHasEval == 0 {
		return false
	}

	ps := &s.PathState[slot]
	hash := s.Rng[slot]

	lightT := ps.Draw1D(k.RNG, hash, core.PRNGLight)
	lightU, lightV := ps.Draw2D(k.RNG, hash, core.PRNGLightU)
	terminate := 0.0
	if k.Config.LightInvRRThreshold > 0 {
		terminate = ps.Draw1D(k.RNG, hash, core.PRNGLightTerminate)
	}

	ls, ok := k.Scene.SampleLight(lightT, lightU, lightV, sd.Time, sd.P, ps.Bounce)
	if !ok {
		return false
	}

	lightRay, eval, isLamp, ok := k.Scene.DirectEmission(sd, &ls, ps, terminate)
	if !ok {
		return false
	}
	if k.Config.MotionBlur {
		lightRay.Time = sd.Time
	}

	s.LightRay[slot] = lightRay
	s.BsdfEval[slot] = eval
	s.IsLamp[slot] = isLamp
	s.RayState.AddFlag(slot, kernel.FlagShadowRayCastDL)
	return true
}
