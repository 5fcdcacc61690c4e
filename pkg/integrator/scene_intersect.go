package integrator

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// rayEpsilon keeps continuation rays from hitting the surface they leave
const rayEpsilon = 0.001

// SceneIntersect traces the ray of every active or regenerated slot.
// Regenerated rays become active. A hit fills the slot's shader data and adds
// visible emission; a miss moves the slot to the hit-background state.
type SceneIntersect struct {
	State  *SplitState
	Scene  Intersector
	Config Config
}

func (k *SceneIntersect) Name() string { return "scene_intersect" }

func (k *SceneIntersect) Run(t *kernel.Thread) {
	slot, exit := k.State.dequeue(t, kernel.QueueActiveAndRegeneratedRays)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	if s.RayState.IsState(slot, kernel.RayRegenerated) {
		s.RayState.SetState(slot, kernel.RayActive)
	}
	if !s.RayState.IsState(slot, kernel.RayActive) {
		return
	}

	sd, hit := k.Scene.Intersect(s.Ray[slot], rayEpsilon, math.Inf(1))
	if !hit {
		s.RayState.SetState(slot, kernel.RayHitBackground)
		return
	}
	s.ShaderData[slot] = sd

	// With direct lighting on, emitters reached after a diffuse bounce were
	// already counted through light sampling
	ps := &s.PathState[slot]
	if sd.Flag&SDEmission != 0 && (!k.Config.UseDirectLight || ps.Bounce == 0 || ps.Specular) {
		s.L[slot].Emission = s.L[slot].Emission.Add(s.Throughput[slot].MultiplyVec(sd.Emission))
	}
}
