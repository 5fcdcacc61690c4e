package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// QueueEnqueue rebuilds the two queues that partition live rays by primary
// state: active and regenerated rays go to the active queue, rays that hit
// the background or finished their path go to the buffer update queue. Both
// queues must be empty when the stage starts. Selection is by primary state
// only, so no slot lands in both.
type QueueEnqueue struct {
	State *SplitState
}

func (k *QueueEnqueue) Name() string { return "queue_enqueue" }

func (k *QueueEnqueue) LocalAtomics() int { return 2 }

func (k *QueueEnqueue) Run(t *kernel.Thread) {
	slot, exit := k.State.slotOf(t)
	if exit {
		return
	}

	var active, finished bool
	if slot != kernel.EmptySlot {
		switch k.State.RayState.State(slot) {
		case kernel.RayActive, kernel.RayRegenerated:
			active = true
		case kernel.RayHitBackground, kernel.RayUpdateBuffer:
			finished = true
		}
	}

	kernel.EnqueueLocal(t, k.State.Queues, kernel.QueueActiveAndRegeneratedRays, slot, active, 0)
	kernel.EnqueueLocal(t, k.State.Queues, kernel.QueueHitBgBuffUpdateToRegenRays, slot, finished, 1)
}
