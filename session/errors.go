package session

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a request's caller-supplied deadline elapses
// before a matching response arrives.
var ErrTimeout = errors.New("session: request timed out")

// ErrAuthFailed is returned by the auth handshake on failure. It is not
// retried within a session.
var ErrAuthFailed = errors.New("session: authentication failed")

// InvalidStateError is returned when an operation is attempted in a state
// that doesn't permit it.
type InvalidStateError struct {
	Current   State
	Attempted string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("session: %s not permitted in state %s", e.Attempted, e.Current)
}

// DroppedSamplesError reports a gap in an AdcQueue's sequence numbers
// across successive PollSamples calls. It is a warning, not a fatal
// error: callers receive both the samples and this alongside them.
type DroppedSamplesError struct {
	Gap uint32
}

func (e DroppedSamplesError) Error() string {
	return fmt.Sprintf("session: dropped samples, gap=%d", e.Gap)
}
