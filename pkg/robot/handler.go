package robot

import (
	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/session"
)

// Capability says which arguments a handler receives. It is fixed by the
// handler's static type at registration; the engine supplies exactly the
// declared arguments, so session-unaware handlers carry no session plumbing.
type Capability int

const (
	// ReplyOnly handlers take no arguments.
	ReplyOnly Capability = iota
	// TakesMessage handlers receive the inbound message.
	TakesMessage
	// TakesMessageSession handlers receive the message and the sender's
	// session, which they may mutate in place.
	TakesMessageSession
)

// Handler is an application callback producing a reply for a message.
// An empty reply means "no opinion, try the next handler".
//
// The interface is sealed: the three function types below are the only
// implementations, one per Capability.
type Handler interface {
	// Capability reports which arguments the handler declared.
	Capability() Capability

	invoke(msg *message.Message, sess session.Session) string
}

// ReplyFunc replies without looking at the message.
type ReplyFunc func() string

func (f ReplyFunc) Capability() Capability { return ReplyOnly }

func (f ReplyFunc) invoke(*message.Message, session.Session) string { return f() }

// MessageFunc replies based on the inbound message.
type MessageFunc func(msg *message.Message) string

func (f MessageFunc) Capability() Capability { return TakesMessage }

func (f MessageFunc) invoke(msg *message.Message, _ session.Session) string { return f(msg) }

// SessionFunc replies based on the message and the sender's session.
type SessionFunc func(msg *message.Message, sess session.Session) string

func (f SessionFunc) Capability() Capability { return TakesMessageSession }

func (f SessionFunc) invoke(msg *message.Message, sess session.Session) string {
	return f(msg, sess)
}

// checkHandler rejects nil handlers, including typed-nil function values
// that would otherwise panic mid-dispatch.
func checkHandler(h Handler) error {
	switch f := h.(type) {
	case nil:
		return ErrNilHandler
	case ReplyFunc:
		if f == nil {
			return ErrNilHandler
		}
	case MessageFunc:
		if f == nil {
			return ErrNilHandler
		}
	case SessionFunc:
		if f == nil {
			return ErrNilHandler
		}
	}
	return nil
}
