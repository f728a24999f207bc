package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage means the persisted store could not be read or written.
	ErrStorage = errors.New("storage failure")
	// ErrScheduling means the wake-up alarm could not be armed.
	ErrScheduling = errors.New("scheduling failure")
	// ErrBadRequest means the request was malformed.
	ErrBadRequest = errors.New("bad request")
	// ErrUnavailable means the daemon could not be reached.
	ErrUnavailable = errors.New("timekeeper unavailable")
)

// Kind is the wire name of an error class.
type Kind string

const (
	KindStorage    Kind = "storage"
	KindScheduling Kind = "scheduling"
	KindBadRequest Kind = "bad_request"
	KindInternal   Kind = "internal"
)

// KindOf classifies err for the wire.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrScheduling):
		return KindScheduling
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	}
	return KindInternal
}

// CommandError is a failed Response turned back into an error on the client.
type CommandError struct {
	Action  Action
	Kind    Kind
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Unwrap maps the wire kind back to its sentinel.
func (e *CommandError) Unwrap() error {
	switch e.Kind {
	case KindStorage:
		return ErrStorage
	case KindScheduling:
		return ErrScheduling
	case KindBadRequest:
		return ErrBadRequest
	}
	return nil
}
