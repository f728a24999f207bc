// Package protocol defines the request/response messages exchanged between
// the popup and the timekeeper daemon, and a newline-delimited JSON transport
// for them over a Unix domain socket.
package protocol

// Action names a request.
type Action string

const (
	ActionStartTimer Action = "startTimer"
	ActionStopTimer  Action = "stopTimer"
	ActionAttach     Action = "attach"
	ActionDetach     Action = "detach"
	ActionFocusPopup Action = "focusPopup"
	ActionStatus     Action = "status"
)

// Surface kinds a foreground client can attach as.
const (
	SurfacePopup  = "popup"
	SurfaceWindow = "window"
)

// Request is one command sent to the daemon.
type Request struct {
	ID     string `json:"id,omitempty"`
	Action Action `json:"action"`

	// startTimer
	Minutes  float64 `json:"minutes,omitempty"`
	Mode     string  `json:"mode,omitempty"`
	Duration int64   `json:"duration,omitempty"` // ms

	// attach, detach
	Surface   string `json:"surface,omitempty"`
	SurfaceID string `json:"surfaceId,omitempty"`
}

// Response answers a Request with the same ID.
type Response struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`

	// attach: a notification asked this surface to come to the front.
	Focus bool `json:"focus,omitempty"`

	// status
	Session *SessionInfo `json:"session,omitempty"`
	Surfaces int         `json:"surfaces,omitempty"`
}

// SessionInfo is the status view of the persisted session.
type SessionInfo struct {
	Mode        string `json:"mode"`
	State       string `json:"state"`
	DurationMs  int64  `json:"durationMs,omitempty"`
	EndTimeMs   int64  `json:"endTimeEpochMs,omitempty"`
	RemainingMs int64  `json:"remainingMs,omitempty"`
}

// OK returns a successful response to req.
func OK(req Request) Response {
	return Response{ID: req.ID, Success: true}
}

// Fail returns a failed response to req carrying err's kind.
func Fail(req Request, err error) Response {
	return Response{ID: req.ID, Success: false, Error: err.Error(), Kind: KindOf(err)}
}
