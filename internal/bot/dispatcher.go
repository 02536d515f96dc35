package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/logger"
)

// HandlerFunc handles a single message.
type HandlerFunc func(ctx context.Context, msg Message) error

type userQueue struct {
	pending []Message
}

// Dispatcher handles messages of one user strictly in order while different
// users are served concurrently. A worker goroutine lives only while its user
// has queued messages.
type Dispatcher struct {
	handle HandlerFunc
	logger *zap.Logger

	mu     sync.Mutex
	queues map[int64]*userQueue
	wg     sync.WaitGroup
}

func NewDispatcher(handle HandlerFunc, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		handle: handle,
		logger: logger,
		queues: make(map[int64]*userQueue),
	}
}

// Dispatch queues msg for its user and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	d.mu.Lock()
	q, running := d.queues[msg.UserID]
	if !running {
		q = &userQueue{}
		d.queues[msg.UserID] = q
	}
	q.pending = append(q.pending, msg)
	if running {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(ctx, msg.UserID, q)
}

// Wait blocks until every queued message is handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context, userID int64, q *userQueue) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(q.pending) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		if err := d.handle(ctx, msg); err != nil {
			logger.ForUser(d.logger, userID).Error("message handling failed", zap.Error(err))
		}
	}
}
