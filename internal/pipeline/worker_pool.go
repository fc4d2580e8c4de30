package pipeline

import (
	"runtime"
	"sync"
)

// workerPool fans chip jobs out over a bounded set of goroutines.
type workerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

// newWorkerPool creates a worker pool with the specified number of
// workers; zero or negative means one per CPU.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &workerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// start launches all workers in the pool.
func (wp *workerPool) start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *workerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// submit queues a job.
func (wp *workerPool) submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// wait blocks until every submitted job has finished.
func (wp *workerPool) wait() {
	wp.wg.Wait()
}

// close shuts the pool down; submit must not be called afterwards.
func (wp *workerPool) close() {
	close(wp.jobQueue)
}
