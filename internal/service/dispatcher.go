package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/metrics"
	"reviewhub-backend/internal/repository"

	"github.com/google/uuid"
)

// DispatcherConfig sizes the post-commit event queue.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxRetries  int
	Backoff     time.Duration
	SinkTimeout time.Duration
}

// Dispatcher fans committed events out to the notification store, the
// activity log and email. Delivery is best effort: a failing sink is retried
// a bounded number of times and then dropped with a log line. Nothing here
// reaches back into the transaction that produced the event.
type Dispatcher struct {
	notes    repository.NotificationRepository
	activity repository.ActivityRepository
	email    EmailService
	cfg      DispatcherConfig

	mu      sync.RWMutex
	jobs    chan domain.Event
	stopped bool
	wg      sync.WaitGroup
}

func NewDispatcher(notes repository.NotificationRepository, activity repository.ActivityRepository, email EmailService, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	return &Dispatcher{
		notes:    notes,
		activity: activity,
		email:    email,
		cfg:      cfg,
		jobs:     make(chan domain.Event, cfg.QueueSize),
	}
}

// Start launches the workers. They exit once Shutdown has drained the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Publish enqueues evt without blocking. A full or stopped queue drops the
// event.
func (d *Dispatcher) Publish(evt domain.Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		logger.Warn("Dispatcher stopped, dropping event", "eventID", evt.ID, "kind", evt.Kind)
		metrics.IncDispatchDropped("stopped")
		return
	}
	select {
	case d.jobs <- evt:
	default:
		logger.Warn("Dispatch queue full, dropping event", "eventID", evt.ID, "kind", evt.Kind)
		metrics.IncDispatchDropped("queue_full")
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	logger.Debug("Dispatch worker started", "worker", id)
	for evt := range d.jobs {
		d.process(evt)
	}
	logger.Debug("Dispatch worker stopped", "worker", id)
}

func (d *Dispatcher) process(evt domain.Event) {
	if evt.Kind != "" && evt.UserID > 0 {
		d.deliver(evt, "notification", func(ctx context.Context) error {
			return d.notes.Create(ctx, &domain.Notification{
				UserID:    evt.UserID,
				Kind:      evt.Kind,
				Message:   evt.Message,
				CreatedAt: evt.CreatedAt,
			})
		})
	}
	if evt.Activity != "" {
		d.deliver(evt, "activity", func(ctx context.Context) error {
			entry := &domain.ActivityLog{Message: evt.Activity, TaskID: evt.TaskID, CreatedAt: evt.CreatedAt}
			if evt.ActorID > 0 {
				actor := evt.ActorID
				entry.UserID = &actor
			}
			return d.activity.Create(ctx, entry)
		})
	}
	if evt.Email && d.email != nil {
		d.deliver(evt, "email", func(ctx context.Context) error {
			return d.email.SendAdminNotification(ctx, subjectFor(evt), evt.Message)
		})
	}
}

func (d *Dispatcher) deliver(evt domain.Event, sink string, send func(ctx context.Context) error) {
	var err error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.cfg.Backoff * time.Duration(attempt*attempt))
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SinkTimeout)
		err = send(ctx)
		cancel()
		if err == nil {
			return
		}
		logger.Warn("Event delivery failed", "eventID", evt.ID, "sink", sink, "attempt", attempt+1, "error", err)
	}
	logger.Error("Dropping event after retries", "eventID", evt.ID, "sink", sink, "kind", evt.Kind, "error", err)
	metrics.IncDispatchDropped(sink)
}

func subjectFor(evt domain.Event) string {
	switch evt.Kind {
	case domain.NotificationRefundCredited:
		return "Task refund credited"
	case domain.NotificationRechargeApproved:
		return "Wallet recharge approved"
	default:
		return fmt.Sprintf("ReviewHub: %s", evt.Kind)
	}
}
