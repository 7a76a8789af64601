// Package events is the in-process pub/sub seam between request handlers and
// side effects like e-mail. Handlers publish and return; subscribers run on
// the dispatcher goroutine, so a slow SMTP server never holds up a response.
package events

import (
	"context"
	"sync"

	"github.com/instiq/caritas/internal/domain/models"
	"go.uber.org/zap"
)

// Event is anything the bus can carry.
type Event interface {
	Name() string
}

// UserRegistered fires after a successful registration. PlainVerifyToken is
// the one-time e-mail verification credential for the mail link.
type UserRegistered struct {
	User             models.User
	PlainVerifyToken string
}

func (UserRegistered) Name() string { return "user.registered" }

// PasswordResetRequested fires when a known e-mail asks for a reset link.
type PasswordResetRequested struct {
	User            models.User
	PlainResetToken string
}

func (PasswordResetRequested) Name() string { return "user.password_reset_requested" }

// CauseSubmitted fires when a new cause enters the moderation queue.
type CauseSubmitted struct {
	Cause models.Cause
}

func (CauseSubmitted) Name() string { return "cause.submitted" }

// CauseApproved fires on a moderator approval.
type CauseApproved struct {
	Cause   models.Cause
	Creator models.User
}

func (CauseApproved) Name() string { return "cause.approved" }

// CauseDisapproved fires on a moderator disapproval. PlainReasonToken is the
// one-time credential for reading the reason.
type CauseDisapproved struct {
	Cause            models.Cause
	Creator          models.User
	PlainReasonToken string
}

func (CauseDisapproved) Name() string { return "cause.disapproved" }

// CauseResolved fires when a moderator marks an approved cause resolved.
// PlainStoryToken is the one-time credential for submitting the success
// story.
type CauseResolved struct {
	Cause           models.Cause
	Creator         models.User
	PlainStoryToken string
}

func (CauseResolved) Name() string { return "cause.resolved" }

// Handler consumes one event. Handlers must not block indefinitely; the
// dispatcher is a single goroutine.
type Handler func(ctx context.Context, ev Event)

// Bus is a buffered single-dispatcher event bus. Subscribe before Start;
// Publish is safe from any goroutine.
type Bus struct {
	log      *zap.Logger
	ch       chan Event
	handlers []Handler

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewBus creates a bus with the given buffer size.
func NewBus(log *zap.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		log:  log,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Subscribe registers a handler. Must be called before Start.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		panic("events: Subscribe after Start")
	}
	b.handlers = append(b.handlers, h)
}

// Publish enqueues an event without blocking. When the buffer is full the
// event is dropped with a log line; every event here is a best-effort
// notification, never a durability guarantee.
func (b *Bus) Publish(ev Event) {
	select {
	case b.ch <- ev:
	default:
		b.log.Warn("event bus full, dropping event", zap.String("event", ev.Name()))
	}
}

// Start launches the dispatcher goroutine. It drains until ctx is canceled,
// then finishes whatever is already buffered and exits.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		for {
			select {
			case ev := <-b.ch:
				b.dispatch(ctx, ev)
			case <-ctx.Done():
				for {
					select {
					case ev := <-b.ch:
						b.dispatch(context.Background(), ev)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the dispatcher has exited. Used during shutdown.
func (b *Bus) Wait() {
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, ev Event) {
	for _, h := range b.handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked",
						zap.String("event", ev.Name()),
						zap.Any("panic", r))
				}
			}()
			h(ctx, ev)
		}()
	}
}
