package kernel

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ExecModel selects how the threads of a group may diverge
type ExecModel int

const (
	// DivergenceTolerant groups let a thread return early; it simply stops
	// taking part in later barriers.
	DivergenceTolerant ExecModel = iota

	// LockStep groups require every thread to reach every barrier, so
	// threads without work must fall through guarded instead of returning.
	LockStep
)

func (m ExecModel) String() string {
	switch m {
	case DivergenceTolerant:
		return "divergence-tolerant"
	case LockStep:
		return "lock-step"
	default:
		return fmt.Sprintf("ExecModel(%d)", int(m))
	}
}

// ParseExecModel parses the names accepted on the command line and in config files
func ParseExecModel(s string) (ExecModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "divergence-tolerant", "divergent", "gpu":
		return DivergenceTolerant, nil
	case "lock-step", "lockstep", "cpu":
		return LockStep, nil
	default:
		return 0, fmt.Errorf("%w: unknown execution model %q", ErrInvalidDevice, s)
	}
}

// group is the shared context of one execution group: its barrier and its
// group-local atomic counters, zeroed before the first thread starts.
type group struct {
	id      int
	size    int
	model   ExecModel
	locals  []atomic.Uint32
	barrier *barrier
}

func newGroup(id, size int, model ExecModel, locals int) *group {
	return &group{
		id:      id,
		size:    size,
		model:   model,
		locals:  make([]atomic.Uint32, locals),
		barrier: newBarrier(size),
	}
}

// Thread is one logical kernel invocation
type Thread struct {
	GlobalID int
	LocalID  int

	group    *group
	barriers int
}

// GroupID returns the index of the thread's execution group
func (t *Thread) GroupID() int {
	return t.group.id
}

// GroupSize returns the number of threads per group
func (t *Thread) GroupSize() int {
	return t.group.size
}

// Model returns the execution model the thread runs under
func (t *Thread) Model() ExecModel {
	return t.group.model
}

// Barrier blocks until every live thread of the group has reached it
func (t *Thread) Barrier() {
	t.barriers++
	t.group.barrier.wait()
}

// Local returns group-local atomic counter i
func (t *Thread) Local(i int) *atomic.Uint32 {
	return &t.group.locals[i]
}

// IsLead reports whether this thread is the lowest live thread of its group.
// Only meaningful between barriers, where the live set cannot change.
func (t *Thread) IsLead() bool {
	return t.group.barrier.lead() == t.LocalID
}
