package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// ShadowBlocked casts the shadow rays prepared by direct lighting. Unblocked
// rays add their BSDF contribution to lamp or emission radiance, and the
// direct-lighting flag is cleared either way. Each queue position is emptied
// as it is consumed.
type ShadowBlocked struct {
	State *SplitState
	Scene Occluder
}

func (k *ShadowBlocked) Name() string { return "shadow_blocked" }

func (k *ShadowBlocked) Run(t *kernel.Thread) {
	slot, exit := k.State.dequeueAndClear(t, kernel.QueueShadowRayCastDLRays)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	if !s.RayState.HasFlag(slot, kernel.FlagShadowRayCastDL) {
		return
	}
	s.RayState.ClearFlag(slot, kernel.FlagShadowRayCastDL)

	if k.Scene.Occluded(s.LightRay[slot]) {
		return
	}

	contribution := s.Throughput[slot].MultiplyVec(s.BsdfEval[slot].Sum())
	if s.IsLamp[slot] {
		s.L[slot].DirectLamp = s.L[slot].DirectLamp.Add(contribution)
	} else {
		s.L[slot].DirectEmission = s.L[slot].DirectEmission.Add(contribution)
	}
}
