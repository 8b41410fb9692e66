// Package robot is the handler registry and dispatch engine: it takes a
// parsed inbound message, walks the ordered handlers registered for that
// message's kind, and returns the first non-empty reply, threading the
// sender's session through every invocation.
package robot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sipeed/mpbot/pkg/bus"
	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/session"
)

// Robot holds the handler registry and the collaborators a dispatch needs.
// Register handlers at startup; Dispatch is safe for concurrent use once
// registration is done.
type Robot struct {
	mu       sync.RWMutex
	handlers map[message.Kind][]Handler

	token string
	store session.Store
	log   *logger.Logger
	bus   *bus.Bus
}

// Option configures a Robot.
type Option func(*Robot)

// WithToken sets the shared secret for CheckSignature.
func WithToken(token string) Option {
	return func(r *Robot) { r.token = token }
}

// WithSessionStore enables per-sender sessions. Without a store, handlers
// registered as SessionFunc receive a nil session.
func WithSessionStore(store session.Store) Option {
	return func(r *Robot) { r.store = store }
}

// WithLogger sets the logging sink for swallowed handler failures.
func WithLogger(log *logger.Logger) Option {
	return func(r *Robot) { r.log = log }
}

// WithBus publishes a DispatchRecord per dispatch for observers.
func WithBus(b *bus.Bus) Option {
	return func(r *Robot) { r.bus = b }
}

// New creates a Robot. The registry starts with an empty ordered list per
// message kind plus the catch-all list.
//
// The logging sink is an explicit dependency: without WithLogger the robot
// gets its own stderr logger, never a shared process-wide one.
func New(opts ...Option) *Robot {
	r := &Robot{
		handlers: make(map[message.Kind][]Handler, len(message.Kinds)+1),
		log:      logger.New(os.Stderr, logger.LevelInfo),
	}
	for _, kind := range message.Kinds {
		r.handlers[kind] = nil
	}
	r.handlers[message.KindAll] = nil
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends h to the ordered handler list for kind. Registration
// order is invocation order. kind must be a concrete message kind or
// message.KindAll; anything else is a caller bug and is rejected.
func (r *Robot) Register(kind message.Kind, h Handler) error {
	if err := checkHandler(h); err != nil {
		return err
	}
	if !kind.Valid() && kind != message.KindAll {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, kind)
	}
	r.mu.Lock()
	r.handlers[kind] = append(r.handlers[kind], h)
	r.mu.Unlock()
	return nil
}

// Shortcuts mirroring the message kinds.

func (r *Robot) Text(h Handler) error        { return r.Register(message.KindText, h) }
func (r *Robot) Image(h Handler) error       { return r.Register(message.KindImage, h) }
func (r *Robot) Link(h Handler) error        { return r.Register(message.KindLink, h) }
func (r *Robot) Location(h Handler) error    { return r.Register(message.KindLocation, h) }
func (r *Robot) Voice(h Handler) error       { return r.Register(message.KindVoice, h) }
func (r *Robot) Subscribe(h Handler) error   { return r.Register(message.KindSubscribe, h) }
func (r *Robot) Unsubscribe(h Handler) error { return r.Register(message.KindUnsubscribe, h) }
func (r *Robot) Click(h Handler) error       { return r.Register(message.KindClick, h) }
func (r *Robot) View(h Handler) error        { return r.Register(message.KindView, h) }

// All registers a handler invoked for every message kind, after the
// kind-specific handlers.
func (r *Robot) All(h Handler) error { return r.Register(message.KindAll, h) }

// resolve returns the effective handler list for kind: kind-specific
// handlers in registration order, then catch-all handlers in registration
// order. Pure read.
func (r *Robot) resolve(kind message.Kind) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specific := r.handlers[kind]
	all := r.handlers[message.KindAll]
	out := make([]Handler, 0, len(specific)+len(all))
	out = append(out, specific...)
	out = append(out, all...)
	return out
}

// Dispatch finds a reply for one inbound message. It returns the first
// non-empty reply a handler produces, or "" when no handler has one.
//
// The sender's session is loaded once before the walk and persisted after
// every invocation, reply or not, so a handler that mutates state but
// declines to answer still has its mutation committed before the next
// handler runs.
//
// A panicking handler aborts the dispatch: the panic is logged, later
// handlers are not attempted, and the empty reply is returned. One
// misbehaving handler neither crashes the caller nor yields to the next
// candidate.
func (r *Robot) Dispatch(ctx context.Context, msg *message.Message) string {
	if msg == nil {
		return ""
	}

	trace := uuid.NewString()
	start := time.Now()

	var sess session.Session
	id := ""
	if r.store != nil && msg.Source != "" {
		id = msg.Source
		loaded, err := r.store.Get(ctx, id)
		if err != nil {
			r.log.WarnCF("dispatch", "Session load failed, using empty session", map[string]interface{}{
				"trace":  trace,
				"source": msg.Source,
				"error":  err.Error(),
			})
			loaded = session.Session{}
		}
		sess = loaded
	}

	reply, failure := r.walk(ctx, msg, id, sess, trace)

	if r.bus != nil {
		r.bus.Publish(bus.DispatchRecord{
			TraceID:  trace,
			Kind:     string(msg.Kind),
			Source:   msg.Source,
			Replied:  reply != "",
			Duration: time.Since(start),
			Error:    failure,
		})
	}
	return reply
}

func (r *Robot) walk(ctx context.Context, msg *message.Message, id string, sess session.Session, trace string) (reply string, failure string) {
	defer func() {
		if rec := recover(); rec != nil {
			failure = fmt.Sprint(rec)
			reply = ""
			r.log.ErrorCF("dispatch", "Handler panicked, dispatch aborted", map[string]interface{}{
				"trace":  trace,
				"kind":   msg.Kind,
				"source": msg.Source,
				"panic":  failure,
			})
		}
	}()

	for _, h := range r.resolve(msg.Kind) {
		out := h.invoke(msg, sess)
		if id != "" {
			if err := r.store.Set(ctx, id, sess); err != nil {
				r.log.WarnCF("dispatch", "Session persist failed", map[string]interface{}{
					"trace":  trace,
					"source": msg.Source,
					"error":  err.Error(),
				})
			}
		}
		if out != "" {
			return out, ""
		}
	}
	return "", ""
}
