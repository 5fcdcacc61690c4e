package kernel

import "errors"

var (
	// ErrQueueOverflow is raised when a stage publishes more slots than a
	// queue can hold. Queues are sized to the slot capacity, so this is a
	// configuration error rather than a runtime condition.
	ErrQueueOverflow = errors.New("kernel: queue overflow")

	// ErrBarrierDivergence reports a lock-step group in which threads did
	// not all reach the same barriers.
	ErrBarrierDivergence = errors.New("kernel: threads diverged across a group barrier")

	// ErrKernelPanic wraps a panic raised inside a kernel thread.
	ErrKernelPanic = errors.New("kernel: panic in kernel thread")

	// ErrInvalidDevice reports an unusable device configuration.
	ErrInvalidDevice = errors.New("kernel: invalid device configuration")
)
