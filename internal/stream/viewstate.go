package stream

import "github.com/sentra-vms/sentra/internal/cameras"

// ViewState is the lifecycle of one camera tile as a single viewer sees it.
// Local actions move the state optimistically; a status broadcast from the
// registry always overrides whatever the viewer requested, so a pending open
// that races a remote close settles on the server's answer.
type ViewState int

const (
	// StateClosed shows no feed. Frames for the camera are ignored.
	StateClosed ViewState = iota
	// StateOpening means the viewer asked for the feed and awaits the
	// registry's confirmation.
	StateOpening
	// StateOpen means frames are displayed as they arrive.
	StateOpen
	// StateUnavailable means the camera source stopped responding.
	StateUnavailable
)

func (s ViewState) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateUnavailable:
		return "unavailable"
	default:
		return "closed"
	}
}

// RequestOpen applies a local open action.
func (s ViewState) RequestOpen() ViewState {
	switch s {
	case StateClosed, StateUnavailable:
		return StateOpening
	default:
		return s
	}
}

// RequestClose applies a local close action. Closing always succeeds locally;
// the registry may still broadcast open afterwards and win.
func (ViewState) RequestClose() ViewState {
	return StateClosed
}

// ApplyStatus folds a registry broadcast into the view. The broadcast wins
// over any pending local transition.
func (ViewState) ApplyStatus(status cameras.Status) ViewState {
	switch status {
	case cameras.StatusOpen:
		return StateOpen
	case cameras.StatusUnavailable:
		return StateUnavailable
	default:
		return StateClosed
	}
}

// Displaying reports whether frames should reach the viewer in this state.
func (s ViewState) Displaying() bool {
	return s == StateOpen
}
