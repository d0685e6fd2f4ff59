// Package cleanup removes stored files once the rows referencing them are gone.
// Deletes are best-effort: failures are logged and never reach the request that caused them.
package cleanup

import (
	"context"
	"sync"

	"github.com/sasikola/mb-server/internal/storage"
	"go.uber.org/zap"
)

// Deleter removes a stored file by reference
type Deleter interface {
	Delete(reference string) error
}

// Pool deletes files on a bounded set of in-process workers
type Pool struct {
	deleter Deleter
	logger  *zap.Logger
	workers int
	jobs    chan string
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewPool creates a pool with the given number of workers and a queue of queueSize pending deletes
func NewPool(deleter Deleter, workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		deleter: deleter,
		logger:  logger,
		workers: workers,
		jobs:    make(chan string, queueSize),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	p.logger.Info("Cleanup pool started", zap.Int("workers", p.workers))
}

func (p *Pool) work() {
	defer p.wg.Done()
	for reference := range p.jobs {
		if err := p.deleter.Delete(reference); err != nil {
			p.logger.Error("failed to delete stored file", zap.String("reference", reference), zap.Error(err))
			continue
		}
		p.logger.Debug("deleted stored file", zap.String("reference", reference))
	}
}

// Dispatch queues references for deletion without blocking the caller.
// References not owned by local storage are skipped. When the queue is full the
// reference is dropped with a warning; the orphan sweep picks it up later.
func (p *Pool) Dispatch(ctx context.Context, references ...string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, reference := range references {
		if !storage.IsLocal(reference) {
			continue
		}
		if p.closed {
			p.logger.Warn("cleanup pool stopped, dropping delete", zap.String("reference", reference))
			continue
		}
		select {
		case p.jobs <- reference:
		default:
			p.logger.Warn("cleanup queue full, dropping delete", zap.String("reference", reference))
		}
	}
}

// Stop stops accepting deletes and waits for queued ones to finish
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Cleanup pool stopped")
}
