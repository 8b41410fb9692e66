// Package message defines the typed inbound message model for WeChat
// official-account webhooks, the XML wire parser that produces it, and the
// reply renderer that turns a handler's text reply back into wire XML.
package message

import (
	"time"
)

// Kind tags the message variant. The set is closed: registering a handler
// under a tag outside this set (plus KindAll) is rejected at registration
// time rather than silently accepted.
type Kind string

const (
	// Event kinds.
	KindSubscribe   Kind = "subscribe"
	KindUnsubscribe Kind = "unsubscribe"
	KindClick       Kind = "click"
	KindView        Kind = "view"

	// Content kinds.
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindLink     Kind = "link"
	KindLocation Kind = "location"
	KindVoice    Kind = "voice"

	// KindAll is the synthetic catch-all registry tag. It never appears on a
	// parsed message; handlers registered under it run after the
	// kind-specific ones for every message.
	KindAll Kind = "all"
)

// Kinds lists every concrete message kind, in a stable order.
var Kinds = []Kind{
	KindSubscribe, KindUnsubscribe, KindClick, KindView,
	KindText, KindImage, KindLink, KindLocation, KindVoice,
}

// Valid reports whether k is a concrete (wire-level) kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSubscribe, KindUnsubscribe, KindClick, KindView,
		KindText, KindImage, KindLink, KindLocation, KindVoice:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Message is one parsed inbound message. It is immutable once constructed
// and owned by the caller for the duration of a single dispatch.
//
// Source identifies the sender (the WeChat OpenID) and keys the per-sender
// session. Target is the account the message was sent to; the reply renderer
// swaps the two.
type Message struct {
	Kind       Kind
	Source     string
	Target     string
	CreateTime time.Time
	MsgID      int64

	// Text.
	Content string

	// Image.
	PicURL string

	// Voice. MediaID is shared with image messages.
	MediaID     string
	Format      string
	Recognition string

	// Link.
	Title       string
	Description string
	URL         string

	// Location.
	LocationX float64
	LocationY float64
	Scale     int
	Label     string

	// Click and view events.
	EventKey string
}
