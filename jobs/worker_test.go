package jobs

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPool_ExecutesJobs(t *testing.T) {
	pool := NewWorkerPool(2, zap.NewNop())
	defer pool.Stop()

	var executed int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := pool.Submit(Job{
			ID: "job",
			Execute: func() error {
				defer wg.Done()
				atomic.AddInt32(&executed, 1)
				return nil
			},
		})
		require.NoError(t, err)
	}

	wg.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&executed))
}

func TestWorkerPool_FailingJobDoesNotStopWorkers(t *testing.T) {
	pool := NewWorkerPool(1, zap.NewNop())
	defer pool.Stop()

	done := make(chan struct{})

	require.NoError(t, pool.Submit(Job{
		ID:      "fails",
		Execute: func() error { return errors.New("boom") },
	}))
	require.NoError(t, pool.Submit(Job{
		ID: "still runs",
		Execute: func() error {
			close(done)
			return nil
		},
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stopped processing after a failed job")
	}
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(1, zap.NewNop())
	pool.Stop()

	err := pool.Submit(Job{ID: "late", Execute: func() error { return nil }})
	assert.Error(t, err)
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(1, zap.NewNop())
	pool.Stop()
	pool.Stop()
}
