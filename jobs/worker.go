package jobs

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Job represents a unit of work
type Job struct {
	ID      string
	Execute func() error
}

// WorkerPool manages a pool of workers for async job processing
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	wg          sync.WaitGroup
	stopOnce    sync.Once
	done        chan struct{}
	log         *zap.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount int, log *zap.Logger) *WorkerPool {
	pool := &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, workerCount*2), // Buffer size = 2x workers
		done:        make(chan struct{}),
		log:         log,
	}

	// Start workers
	for i := 0; i < workerCount; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	log.Info("worker pool started", zap.Int("workers", workerCount))
	return pool
}

// worker processes jobs from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			p.log.Debug("job started", zap.Int("worker", id), zap.String("job_id", job.ID))
			if err := job.Execute(); err != nil {
				p.log.Error("job failed", zap.Int("worker", id), zap.String("job_id", job.ID), zap.Error(err))
			} else {
				p.log.Debug("job completed", zap.Int("worker", id), zap.String("job_id", job.ID))
			}

		case <-p.done:
			return
		}
	}
}

// Submit adds a job to the queue
func (p *WorkerPool) Submit(job Job) error {
	select {
	case <-p.done:
		return fmt.Errorf("worker pool is shutting down")
	default:
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-p.done:
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Stop gracefully shuts down the worker pool. The queue stays open so a
// concurrent Submit errors instead of panicking on a closed channel.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.log.Info("worker pool stopped")
	})
}

// QueueSize returns the current number of jobs in queue
func (p *WorkerPool) QueueSize() int {
	return len(p.jobQueue)
}
