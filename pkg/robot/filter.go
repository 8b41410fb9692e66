package robot

import (
	"fmt"
	"regexp"

	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/session"
)

// Filter registers h as a text handler gated on content. Each target is
// either a literal string (exact content equality) or a *regexp.Regexp
// (matched at the start of the content, not anywhere inside it).
//
// Several literals register h once per literal, as independent entries in
// the text handler list, so one callback can answer multiple literals.
// Targets are validated before anything is registered; a bad target leaves
// the registry untouched.
func (r *Robot) Filter(h Handler, targets ...interface{}) error {
	if err := checkHandler(h); err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets given", ErrInvalidFilterTarget)
	}

	preds := make([]func(*message.Message) bool, 0, len(targets))
	for _, target := range targets {
		switch t := target.(type) {
		case string:
			want := t
			preds = append(preds, func(m *message.Message) bool {
				return m.Content == want
			})
		case *regexp.Regexp:
			re := t
			preds = append(preds, func(m *message.Message) bool {
				loc := re.FindStringIndex(m.Content)
				return loc != nil && loc[0] == 0
			})
		default:
			return fmt.Errorf("%w: %T", ErrInvalidFilterTarget, target)
		}
	}

	for _, pred := range preds {
		if err := r.Text(gate(h, pred)); err != nil {
			return err
		}
	}
	return nil
}

// KeyClick registers h as a click handler that only runs when the click
// event's key equals key.
func (r *Robot) KeyClick(key string, h Handler) error {
	if err := checkHandler(h); err != nil {
		return err
	}
	return r.Click(gate(h, func(m *message.Message) bool {
		return m.EventKey == key
	}))
}

// gate wraps h behind a predicate. The wrapper takes both arguments so a
// session is always on hand; h's own capability still decides what h sees.
func gate(h Handler, pred func(*message.Message) bool) Handler {
	return SessionFunc(func(msg *message.Message, sess session.Session) string {
		if !pred(msg) {
			return ""
		}
		return h.invoke(msg, sess)
	})
}
