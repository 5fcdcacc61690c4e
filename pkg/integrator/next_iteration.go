package integrator

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NextIteration scatters every active ray off its surface to set up the next
// bounce. Paths that reach the bounce limit, are absorbed or lose the Russian
// roulette are retired to the update-buffer state.
type NextIteration struct {
	State  *SplitState
	RNG    RNG
	Config Config
}

func (k *NextIteration) Name() string { return "next_iteration" }

func (k *NextIteration) Run(t *kernel.Thread) {
	slot, exit := k.State.dequeue(t, kernel.QueueActiveAndRegeneratedRays)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	if !s.RayState.IsState(slot, kernel.RayActive) {
		return
	}
	if !k.scatter(slot) {
		s.RayState.SetState(slot, kernel.RayUpdateBuffer)
	}
}

// scatter advances the path in slot by one bounce and reports whether it continues
func (k *NextIteration) scatter(slot int) bool {
	s := k.State
	ps := &s.PathState[slot]
	sd := &s.ShaderData[slot]
	hash := s.Rng[slot]

	if ps.Bounce >= k.Config.MaxBounce || sd.Material == nil {
		return false
	}

	u, v := ps.Draw2D(k.RNG, hash, core.PRNGBsdfU)
	hit := material.HitRecord{
		Point:     sd.P,
		Normal:    sd.N,
		T:         sd.T,
		FrontFace: sd.Flag&SDBackfacing == 0,
		Material:  sd.Material,
	}
	result, ok := sd.Material.Scatter(s.Ray[slot], hit, core.NewVec2(u, v))
	if !ok {
		return false
	}

	throughput := s.Throughput[slot].MultiplyVec(result.Weight(sd.N))
	if throughput.IsZero() {
		return false
	}

	if ps.Bounce >= k.Config.RussianRouletteMinBounces {
		// Survival probability between 0.5 and 0.95, by luminance
		survivalProb := math.Min(0.95, math.Max(0.5, throughput.Luminance()))
		if ps.Draw1D(k.RNG, hash, core.PRNGTerminate) > survivalProb {
			return false
		}
		throughput = throughput.Multiply(1.0 / survivalProb)
	}

	s.Throughput[slot] = throughput
	s.Ray[slot] = result.Scattered
	ps.Bounce++
	ps.RngOffset += core.PRNGBounceNum
	ps.Specular = result.IsSpecular()
	return true
}
