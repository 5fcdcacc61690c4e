package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// BackgroundBufferUpdate adds the background radiance of every ray that left
// the scene and retires it to the update-buffer state.
type BackgroundBufferUpdate struct {
	State *SplitState
	Scene Background
}

func (k *BackgroundBufferUpdate) Name() string { return "background_buffer_update" }

func (k *BackgroundBufferUpdate) Run(t *kernel.Thread) {
	slot, exit := k.State.dequeue(t, kernel.QueueHitBgBuffUpdateToRegenRays)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	if !s.RayState.IsState(slot, kernel.RayHitBackground) {
		return
	}

	bg := k.Scene.BackgroundColor(s.Ray[slot])
	s.L[slot].Background = s.L[slot].Background.Add(s.Throughput[slot].MultiplyVec(bg))
	s.RayState.SetState(slot, kernel.RayUpdateBuffer)
}
