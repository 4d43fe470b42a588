package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/lfg/internal/service"
)

var errIntentPanicked = errors.New("intent panicked")

// ErrorRecorder stores a failed intent for the viewer that issued it, keyed
// by the post it concerned.
type ErrorRecorder interface {
	Record(viewerID, postID string, err error)
}

// Intent is one fire-and-forget store command
type Intent struct {
	Name     string // for logs, e.g. "join"
	ViewerID string
	PostID   string // empty for intents not scoped to a post
	Run      func(ctx context.Context) error
}

// DispatcherConfig holds configuration for the intent dispatcher
type DispatcherConfig struct {
	Timeout     time.Duration // per intent, default 30s
	Concurrency int           // default 16
	Errors      ErrorRecorder
	EventHub    *service.EventHub // optional, receives dispatch.failed
}

// Dispatcher runs store commands off the request path. Intents outlive the
// request that issued them and are drained by Close.
type Dispatcher struct {
	group    *errgroup.Group
	timeout  time.Duration
	recorder ErrorRecorder
	hub      *service.EventHub

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a new intent dispatcher
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	group := &errgroup.Group{}
	group.SetLimit(cfg.Concurrency)
	return &Dispatcher{
		group:    group,
		timeout:  cfg.Timeout,
		recorder: cfg.Errors,
		hub:      cfg.EventHub,
	}
}

// Dispatch schedules the intent and returns without waiting for it. It
// blocks only while every worker slot is busy. The intent runs with the
// values of ctx but not its cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return service.ErrDispatcherClosed
	}

	detached := context.WithoutCancel(ctx)
	d.group.Go(func() error {
		d.run(detached, intent)
		return nil
	})
	return nil
}

func (d *Dispatcher) run(ctx context.Context, intent Intent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch panicked",
				slog.String("intent", intent.Name),
				slog.Any("panic", r))
			d.fail(intent, errIntentPanicked)
		}
	}()

	start := time.Now()
	err := intent.Run(ctx)
	if err == nil {
		slog.Debug("dispatch done",
			slog.String("intent", intent.Name),
			slog.String("post_id", intent.PostID),
			slog.Duration("duration", time.Since(start)))
		return
	}

	slog.Warn("dispatch rejected",
		slog.String("intent", intent.Name),
		slog.String("viewer_id", intent.ViewerID),
		slog.String("post_id", intent.PostID),
		slog.String("error", err.Error()))
	d.fail(intent, err)
}

func (d *Dispatcher) fail(intent Intent, err error) {
	if d.recorder != nil {
		d.recorder.Record(intent.ViewerID, intent.PostID, err)
	}
	if d.hub != nil && intent.ViewerID != "" {
		d.hub.SendToUser(intent.ViewerID, &service.Event{
			Type:  service.EventDispatchFailed,
			Topic: service.TopicBoard,
			Data: map[string]string{
				"intent":  intent.Name,
				"post_id": intent.PostID,
				"message": service.UserMessage(err),
			},
		})
	}
}

// Close refuses new intents and waits for in-flight ones to finish
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	_ = d.group.Wait()
	slog.Info("dispatcher drained")
}
