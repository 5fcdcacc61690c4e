package kernel

// EnqueueLocal publishes slot into queue q when enqueue is true. It is a
// collective operation: every live thread of the group must call it, with
// or without a slot to publish, using the same local counter.
//
// Each publishing thread takes a rank from the group-local counter, the
// lead thread then reserves one contiguous range for the whole group with a
// single global add, and each publisher writes at base+rank. Positions are
// therefore unique across groups and the slot lands exactly once.
//
// The local counter must be zero on entry and is used by one enqueue per
// dispatch. A queue that would grow past its capacity panics with
// ErrQueueOverflow, which the device reports as a dispatch error.
func EnqueueLocal(t *Thread, qs *QueueStore, q QueueID, slot int, enqueue bool, local int) {
	counter := t.Local(local)

	var rank uint32
	if enqueue {
		rank = counter.Add(1) - 1
	}

	t.Barrier()

	if t.IsLead() {
		counter.Store(qs.reserve(q, counter.Load()))
	}

	t.Barrier()

	if enqueue {
		qs.store(q, int(counter.Load()+rank), slot)
	}
}
