package robot

// Error is a registration-time error. These surface synchronously so
// wiring mistakes fail at startup; runtime handler failures never do
// (see Dispatch).
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNilHandler          Error = "robot: handler is nil"
	ErrUnknownMessageType  Error = "robot: unknown message type"
	ErrInvalidFilterTarget Error = "robot: filter target must be a string or *regexp.Regexp"
)
