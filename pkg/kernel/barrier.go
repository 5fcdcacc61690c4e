package kernel

import "sync"

// barrier is a reusable rendezvous for the threads of one execution group.
// It has no timeout and no cancellation: every live participant is expected
// to arrive. Participants that finish their kernel leave the barrier, which
// keeps the remaining threads from waiting on them forever.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	arrived    int
	generation uint64
	live       []bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{
		parties: parties,
		live:    make([]bool, parties),
	}
	for i := range b.live {
		b.live[i] = true
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until every live participant has arrived
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++
	if b.arrived >= b.parties {
		b.trip()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// leave removes participant id. If everyone still live is already waiting,
// the barrier trips.
func (b *barrier) leave(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.live[id] {
		return
	}
	b.live[id] = false
	b.parties--
	if b.arrived > 0 && b.arrived >= b.parties {
		b.trip()
	}
}

// lead returns the lowest live participant id, or -1 once all have left
func (b *barrier) lead() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ok := range b.live {
		if ok {
			return id
		}
	}
	return -1
}

func (b *barrier) trip() {
	b.arrived = 0
	b.generation++
	b.cond.Broadcast()
}
