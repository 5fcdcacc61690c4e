package kernel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Kernel is one parallel stage. Run is invoked once per logical thread.
type Kernel interface {
	Name() string
	Run(t *Thread)
}

// LocalMemory is implemented by kernels that need group-local atomic counters
type LocalMemory interface {
	LocalAtomics() int
}

// Config describes the execution device
type Config struct {
	GroupSize int       // threads per execution group
	Model     ExecModel // divergence behavior inside a group
	Workers   int       // groups executed concurrently, 0 means NumCPU
}

// DefaultConfig returns a divergence-tolerant device with 64-thread groups
func DefaultConfig() Config {
	return Config{
		GroupSize: 64,
		Model:     DivergenceTolerant,
		Workers:   runtime.NumCPU(),
	}
}

// Validate checks that the device can be built from c
func (c Config) Validate() error {
	if c.GroupSize < 1 {
		return fmt.Errorf("%w: group size %d", ErrInvalidDevice, c.GroupSize)
	}
	if c.Model != DivergenceTolerant && c.Model != LockStep {
		return fmt.Errorf("%w: %s", ErrInvalidDevice, c.Model)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d workers", ErrInvalidDevice, c.Workers)
	}
	return nil
}

// DispatchStats describes one completed dispatch
type DispatchStats struct {
	Kernel   string
	Groups   int
	Threads  int
	Duration time.Duration
}

// Device runs kernels over a grid of logical threads. Dispatches on one
// device are serialized, and every group of a dispatch has finished when
// Dispatch returns.
type Device struct {
	cfg  Config
	pool *workerPool
	mu   sync.Mutex
}

// NewDevice validates cfg and starts the device workers
func NewDevice(cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Device{cfg: cfg}
	d.pool = newWorkerPool(d, cfg.Workers)
	d.pool.Start()
	return d, nil
}

// Config returns the device configuration
func (d *Device) Config() Config {
	return d.cfg
}

// Close stops the device workers
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pool.Stop()
}

// Dispatch runs k for globalSize logical threads, rounded up to whole groups.
// It returns the first error reported by any group. Cancellation is observed
// between groups; groups already started run to completion.
func (d *Device) Dispatch(ctx context.Context, k Kernel, globalSize int) (DispatchStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	groupSize := d.cfg.GroupSize
	numGroups := (globalSize + groupSize - 1) / groupSize
	stats := DispatchStats{
		Kernel:  k.Name(),
		Groups:  numGroups,
		Threads: numGroups * groupSize,
	}

	locals := 0
	if lm, ok := k.(LocalMemory); ok {
		locals = lm.LocalAtomics()
	}

	submitted := make(chan int, 1)
	go func() {
		n := 0
		for g := 0; g < numGroups; g++ {
			if ctx.Err() != nil {
				break
			}
			d.pool.SubmitTask(groupTask{
				Kernel:  k,
				GroupID: g,
				Locals:  locals,
			})
			n++
		}
		submitted <- n
	}()

	var firstErr error
	total, received := -1, 0
	for total < 0 || received < total {
		select {
		case n := <-submitted:
			total = n
		case res := <-d.pool.resultQueue:
			received++
			if res.Error != nil && firstErr == nil {
				firstErr = res.Error
			}
		}
	}

	stats.Duration = time.Since(start)
	if firstErr != nil {
		return stats, fmt.Errorf("dispatch %s: %w", k.Name(), firstErr)
	}
	if total < numGroups {
		return stats, fmt.Errorf("dispatch %s: ran %d of %d groups: %w", k.Name(), total, numGroups, ctx.Err())
	}

	core.Logger().Debug("kernel dispatched",
		"kernel", stats.Kernel,
		"groups", stats.Groups,
		"threads", stats.Threads,
		"duration", stats.Duration)
	return stats, nil
}

// runGroup executes every thread of one group and checks lock-step barrier use
func (d *Device) runGroup(task groupTask) error {
	size := d.cfg.GroupSize
	g := newGroup(task.GroupID, size, d.cfg.Model, task.Locals)

	threads := make([]Thread, size)
	errs := make([]error, size)
	for i := range threads {
		threads[i] = Thread{
			GlobalID: task.GroupID*size + i,
			LocalID:  i,
			group:    g,
		}
	}

	if size == 1 {
		errs[0] = runThread(task.Kernel, &threads[0])
	} else {
		var wg sync.WaitGroup
		for i := range threads {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = runThread(task.Kernel, &threads[i])
			}(i)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("group %d: %w", task.GroupID, err)
		}
	}

	if d.cfg.Model == LockStep {
		for i := 1; i < size; i++ {
			if threads[i].barriers != threads[0].barriers {
				return fmt.Errorf("%w: %s group %d: thread %d reached %d barriers, thread 0 reached %d",
					ErrBarrierDivergence, task.Kernel.Name(), task.GroupID,
					i, threads[i].barriers, threads[0].barriers)
			}
		}
	}
	return nil
}

// runThread runs one thread and turns a panic into an error. The thread
// always leaves the group barrier so that the rest of the group can finish.
func runThread(k Kernel, t *Thread) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %s thread %d: %w", ErrKernelPanic, k.Name(), t.GlobalID, e)
			} else {
				err = fmt.Errorf("%w: %s thread %d: %v", ErrKernelPanic, k.Name(), t.GlobalID, r)
			}
		}
		t.group.barrier.leave(t.LocalID)
	}()

	k.Run(t)
	return nil
}
