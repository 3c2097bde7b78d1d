// Package publisher emits audit events to a Store, either synchronously or
// through a buffered channel drained by a background goroutine.
//
// Async mode trades delivery guarantees for latency: a full buffer drops
// the event rather than blocking the request path. Compliance-relevant
// events should use sync mode (no buffer).
package publisher

import (
	"context"
	"log/slog"
	"sync"

	id "clearcheck/pkg/domain"
	audit "clearcheck/pkg/platform/audit"
	"clearcheck/pkg/platform/sentinel"
	"clearcheck/pkg/requestcontext"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox   chan audit.Event
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables async emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	} else {
		close(p.done)
	}
	return p
}

// Emit records an event. Missing timestamps are filled from the request
// clock so tests with a pinned clock get deterministic events.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		// Buffer full: drop rather than block the request path.
		if p.logger != nil {
			p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		}
	}
	return nil
}

// List returns events for an operator when the backing store supports
// reads. Produce-only sinks return not found.
func (p *Publisher) List(ctx context.Context, operatorID id.OperatorID) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return lister.ListByOperator(ctx, operatorID)
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	<-p.done
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}
