package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// SplitState is the per-ray data shared by all stages, stored as parallel
// arrays indexed by slot. A slot is owned by the thread processing it in the
// current stage; payload written by one stage stays valid until the
// consuming stage reads it.
type SplitState struct {
	Capacity int

	RayState *kernel.StateArray
	Queues   *kernel.QueueStore

	Rng        []uint32 // Per-pixel stream hash
	PathState  []PathState
	ShaderData []ShaderData
	Ray        []core.Ray
	Throughput []core.Vec3
	L          []PathRadiance
	Pixel      []int // Film index, -1 for slots without a pixel

	// Written by direct lighting, read by the shadow stage
	LightRay []ShadowRay
	BsdfEval []BsdfEval
	IsLamp   []bool
}

// NewSplitState allocates state and queues for capacity slots
func NewSplitState(capacity int) *SplitState {
	s := &SplitState{
		Capacity:   capacity,
		RayState:   kernel.NewStateArray(capacity),
		Queues:     kernel.NewQueueStore(capacity),
		Rng:        make([]uint32, capacity),
		PathState:  make([]PathState, capacity),
		ShaderData: make([]ShaderData, capacity),
		Ray:        make([]core.Ray, capacity),
		Throughput: make([]core.Vec3, capacity),
		L:          make([]PathRadiance, capacity),
		Pixel:      make([]int, capacity),
		LightRay:   make([]ShadowRay, capacity),
		BsdfEval:   make([]BsdfEval, capacity),
		IsLamp:     make([]bool, capacity),
	}
	for i := range s.Pixel {
		s.Pixel[i] = -1
	}
	return s
}

// Reset returns every slot to inactive and empties all queues
func (s *SplitState) Reset() {
	s.RayState.Reset()
	s.Queues.ResetAll()
	for i := range s.Pixel {
		s.Pixel[i] = -1
	}
}

// slotOf maps a thread of a per-slot stage to its slot. Threads past the
// capacity get EmptySlot; exit reports whether such a thread may return early.
func (s *SplitState) slotOf(t *kernel.Thread) (slot int, exit bool) {
	if t.GlobalID >= s.Capacity {
		return kernel.EmptySlot, t.Model() == kernel.DivergenceTolerant
	}
	return t.GlobalID, false
}

// dequeue maps a thread of a queue-consuming stage to its slot of q. Threads
// past the live size get EmptySlot; exit reports whether such a thread may
// return early.
func (s *SplitState) dequeue(t *kernel.Thread, q kernel.QueueID) (slot int, exit bool) {
	slot = s.Queues.Dequeue(q, t.GlobalID)
	return slot, slot == kernel.EmptySlot && t.Model() == kernel.DivergenceTolerant
}

// dequeueAndClear is dequeue for a queue consumed by a single stage: the
// position is emptied once read.
func (s *SplitState) dequeueAndClear(t *kernel.Thread, q kernel.QueueID) (slot int, exit bool) {
	slot = s.Queues.DequeueAndClear(q, t.GlobalID)
	return slot, slot == kernel.EmptySlot && t.Model() == kernel.DivergenceTolerant
}
