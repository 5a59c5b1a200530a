// Package publisher emits audit events to a store, either inline or through
// a buffered worker that the owner runs with Run.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/audit/worker"
)

// ErrBufferFull is returned by Emit in async mode when the buffer has no room.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("audit publisher already running")

// Publisher is append-only. In sync mode Emit writes straight to the store;
// with WithAsyncBuffer events are queued until Run persists them.
type Publisher struct {
	store      audit.Store
	logger     *slog.Logger
	bufferSize int

	mu      sync.RWMutex
	closed  bool
	started bool
	inbox   chan audit.Event
	done    chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given queue size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
	}
	return p
}

// Run persists queued events until Close is called or ctx is cancelled, then
// drains whatever is still queued before returning. In sync mode there is
// nothing to run and Run returns nil at once.
func (p *Publisher) Run(ctx context.Context) error {
	if p.inbox == nil {
		return nil
	}
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.started = true
	p.mu.Unlock()
	defer close(p.done)

	w := worker.NewWorker(p.store, p.inbox, p.logger)
	if err := w.Run(ctx); err == nil || ctx.Err() == nil {
		return err
	}
	p.stopIntake()
	return w.Run(context.WithoutCancel(ctx))
}

// Emit stamps missing fields and hands the event to the store or the queue.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
		return ErrBufferFull
	}
}

// Close stops accepting events. If Run is active, Close waits for it to
// persist everything already queued.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.stopIntake()
	p.mu.RLock()
	started := p.started
	p.mu.RUnlock()
	if started {
		<-p.done
	}
}

func (p *Publisher) stopIntake() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}
