package kernel

import (
	"runtime"
	"sync"
)

// groupTask asks a worker to run one execution group of a dispatch
type groupTask struct {
	Kernel  Kernel
	GroupID int
	Locals  int
}

// groupResult contains the outcome of one group
type groupResult struct {
	Error error
}

// workerPool runs execution groups on a fixed set of goroutines
type workerPool struct {
	taskQueue   chan groupTask
	resultQueue chan groupResult
	workers     []*worker
	wg          sync.WaitGroup
}

// worker pulls group tasks and runs them to completion
type worker struct {
	ID          int
	device      *Device
	taskQueue   chan groupTask
	resultQueue chan groupResult
}

// newWorkerPool creates a pool with the specified number of workers
func newWorkerPool(device *Device, numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &workerPool{
		taskQueue:   make(chan groupTask, 2*numWorkers),
		resultQueue: make(chan groupResult, 2*numWorkers),
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &worker{
			ID:          i,
			device:      device,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *workerPool) Start() {
	for _, w := range wp.workers {
		wp.wg.Add(1)
		go w.run(&wp.wg)
	}
}

// Stop shuts down all workers once queued tasks are done
func (wp *workerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask queues a group for execution
func (wp *workerPool) SubmitTask(task groupTask) {
	wp.taskQueue <- task
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- groupResult{Error: w.device.runGroup(task)}
	}
}
