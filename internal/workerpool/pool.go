package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
)

// Task is a unit of work. The context carries the per-task deadline.
type Task func(ctx context.Context)

// Pool is a bounded worker pool executing submitted tasks.
type Pool struct {
	name        string
	size        int
	taskTimeout time.Duration
	queue       chan Task
	wg          sync.WaitGroup
	closed      chan struct{}
	mu          sync.RWMutex
	shutdown    sync.Once
}

var (
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned when the queue has no free slot.
	ErrQueueFull = errors.New("worker pool queue full")
)

// New creates a worker pool with given size and queue capacity.
func New(name string, size, queueCap int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueCap <= 0 {
		queueCap = 1
	}
	p := &Pool{
		name:        name,
		size:        size,
		taskTimeout: 30 * time.Second,
		queue:       make(chan Task, queueCap),
		closed:      make(chan struct{}),
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for task := range p.queue {
				ctx, cancel := context.WithTimeout(context.Background(), p.taskTimeout)
				func() {
					defer func() {
						if r := recover(); r != nil {
							logging.ErrorLog("workerpool '%s' worker %d recovered from panic: %v", p.name, id, r)
						}
					}()
					task(ctx)
				}()
				cancel()
			}
		}(i)
	}
}

// Submit enqueues a task without waiting for it.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}
	select {
	case p.queue <- task:
		return nil
	default:
		logging.WarnLog("workerpool '%s' queue full; dropping task", p.name)
		return ErrQueueFull
	}
}

// Run submits fn and blocks until it returns or ctx is done.
// fn receives a context cancelled by either ctx or the pool's task deadline.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	err := p.Submit(func(taskCtx context.Context) {
		merged, cancel := context.WithCancel(taskCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		result <- fn(merged)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.shutdown.Do(func() {
		p.mu.Lock()
		close(p.closed)
		close(p.queue)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			logging.WarnLog("workerpool '%s' shutdown timed out", p.name)
		}
	})
}
