package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// SumRadiance writes the radiance of every finished path to its pixel and
// marks the slot for regeneration. Each pixel belongs to one slot per wave,
// so film writes never collide.
type SumRadiance struct {
	State *SplitState
	Film  Film
}

func (k *SumRadiance) Name() string { return "sum_radiance" }

func (k *SumRadiance) Run(t *kernel.Thread) {
	slot, exit := k.State.slotOf(t)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	if !s.RayState.IsState(slot, kernel.RayUpdateBuffer) {
		return
	}
	if s.Pixel[slot] >= 0 {
		k.Film.AddSample(s.Pixel[slot], s.L[slot].Sum())
	}
	s.RayState.SetState(slot, kernel.RayToRegenerate)
}
