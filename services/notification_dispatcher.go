package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"trainingCoachAPI/internal/logger"

	"github.com/google/uuid"
)

var ErrDispatcherClosed = errors.New("notification dispatcher closed")
var ErrDispatchQueueFull = errors.New("notification queue full")

const dispatchJobTimeout = 10 * time.Second

type dispatchJob struct {
	kind string
	run  func(ctx context.Context) error
}

// NotificationDispatcher moves streak pushes off the request path onto a
// small worker pool. It implements StreakNotifier by queueing.
type NotificationDispatcher struct {
	next   StreakNotifier
	logger *logger.Logger

	mu       sync.RWMutex
	closed   bool
	jobQueue chan dispatchJob
	wg       sync.WaitGroup
}

func NewNotificationDispatcher(next StreakNotifier, workers, queueSize int, log *logger.Logger) *NotificationDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &NotificationDispatcher{
		next:     next,
		logger:   log,
		jobQueue: make(chan dispatchJob, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

func (d *NotificationDispatcher) FreezeEarned(ctx context.Context, userID uuid.UUID, currentStreak, freezes int) error {
	return d.enqueue(dispatchJob{kind: "freeze_earned", run: func(ctx context.Context) error {
		return d.next.FreezeEarned(ctx, userID, currentStreak, freezes)
	}})
}

func (d *NotificationDispatcher) StreakMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) error {
	return d.enqueue(dispatchJob{kind: "milestone", run: func(ctx context.Context) error {
		return d.next.StreakMilestone(ctx, userID, currentStreak)
	}})
}

func (d *NotificationDispatcher) enqueue(job dispatchJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobQueue <- job:
		return nil
	default:
		return ErrDispatchQueueFull
	}
}

// Stop rejects new jobs and waits for the queued ones to finish.
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobQueue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()

	for job := range d.jobQueue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchJobTimeout)
		if err := job.run(ctx); err != nil {
			d.logger.Warn("streak push failed", "worker", id, "kind", job.kind, "error", err)
		}
		cancel()
	}
}
