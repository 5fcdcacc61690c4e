package kernel

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sys/cpu"
)

// EmptySlot is returned by Dequeue for threads that have no ray to process
const EmptySlot = -1

// QueueID names one of the work-compaction queues
type QueueID int

const (
	QueueActiveAndRegeneratedRays QueueID = iota
	QueueHitBgBuffUpdateToRegenRays
	QueueShadowRayCastAORays
	QueueShadowRayCastDLRays
	NumQueues
)

func (q QueueID) String() string {
	switch q {
	case QueueActiveAndRegeneratedRays:
		return "active_and_regenerated"
	case QueueHitBgBuffUpdateToRegenRays:
		return "hitbg_buff_update_toregen"
	case QueueShadowRayCastAORays:
		return "shadow_ray_cast_ao"
	case QueueShadowRayCastDLRays:
		return "shadow_ray_cast_dl"
	default:
		return fmt.Sprintf("QueueID(%d)", int(q))
	}
}

// queueCounter keeps each queue's live size on its own cache line so that
// producers of different queues do not contend.
type queueCounter struct {
	size atomic.Uint32
	_    cpu.CacheLinePad
}

// QueueStore holds every queue as a fixed segment of one flat index array,
// plus one atomic live-size counter per queue. Positions past the live size
// hold EmptySlot.
type QueueStore struct {
	capacity int
	data     []int32
	sizes    [NumQueues]queueCounter
}

// NewQueueStore allocates queues able to hold capacity slots each
func NewQueueStore(capacity int) *QueueStore {
	qs := &QueueStore{
		capacity: capacity,
		data:     make([]int32, int(NumQueues)*capacity),
	}
	for i := range qs.data {
		qs.data[i] = EmptySlot
	}
	return qs
}

// Capacity returns the number of positions per queue
func (qs *QueueStore) Capacity() int {
	return qs.capacity
}

// Size returns the live count of a queue
func (qs *QueueStore) Size(q QueueID) int {
	return int(qs.sizes[q].size.Load())
}

// Dequeue maps a logical thread to the slot at the same position of queue q.
// Threads at or beyond the live size receive EmptySlot.
func (qs *QueueStore) Dequeue(q QueueID, threadID int) int {
	if threadID < 0 || threadID >= qs.capacity || threadID >= qs.Size(q) {
		return EmptySlot
	}
	return int(qs.data[qs.index(q, threadID)])
}

// DequeueAndClear is Dequeue for queues that are consumed exactly once: the
// position is reset to EmptySlot after it has been read.
func (qs *QueueStore) DequeueAndClear(q QueueID, threadID int) int {
	slot := qs.Dequeue(q, threadID)
	if slot != EmptySlot {
		qs.data[qs.index(q, threadID)] = EmptySlot
	}
	return slot
}

// Reset empties queue q. It must only be called between dispatches.
func (qs *QueueStore) Reset(q QueueID) {
	start := qs.index(q, 0)
	segment := qs.data[start : start+qs.capacity]
	for i := range segment {
		segment[i] = EmptySlot
	}
	qs.sizes[q].size.Store(0)
}

// ResetAll empties every queue
func (qs *QueueStore) ResetAll() {
	for q := QueueID(0); q < NumQueues; q++ {
		qs.Reset(q)
	}
}

// Push appends one slot to queue q from the host side
func (qs *QueueStore) Push(q QueueID, slot int) {
	pos := qs.reserve(q, 1)
	qs.store(q, int(pos), slot)
}

// Slots returns a copy of the live entries of queue q
func (qs *QueueStore) Slots(q QueueID) []int {
	n := min(qs.Size(q), qs.capacity)
	out := make([]int, n)
	start := qs.index(q, 0)
	for i := range out {
		out[i] = int(qs.data[start+i])
	}
	return out
}

// Checksum hashes the full segment and live size of queue q. Two equal
// checksums mean the queue was left byte-for-byte unchanged.
func (qs *QueueStore) Checksum(q QueueID) [32]byte {
	start := qs.index(q, 0)
	buf := make([]byte, 4+4*qs.capacity)
	binary.LittleEndian.PutUint32(buf, qs.sizes[q].size.Load())
	for i, v := range qs.data[start : start+qs.capacity] {
		binary.LittleEndian.PutUint32(buf[4+4*i:], uint32(v))
	}
	return blake2b.Sum256(buf)
}

// reserve atomically grows the live size of q by n and returns the previous
// size, the base offset of the reserved range.
func (qs *QueueStore) reserve(q QueueID, n uint32) uint32 {
	return qs.sizes[q].size.Add(n) - n
}

// store writes slot at a reserved position of q
func (qs *QueueStore) store(q QueueID, pos int, slot int) {
	if pos >= qs.capacity {
		panic(fmt.Errorf("%w: %s position %d, capacity %d", ErrQueueOverflow, q, pos, qs.capacity))
	}
	qs.data[qs.index(q, pos)] = int32(slot)
}

func (qs *QueueStore) index(q QueueID, pos int) int {
	return int(q)*qs.capacity + pos
}
