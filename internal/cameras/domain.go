package cameras

import "time"

// Status describes the server-side state of a camera feed.
type Status string

const (
	// StatusClosed means the camera is registered but not streaming.
	StatusClosed Status = "closed"
	// StatusOpen means the camera is streaming and frames may arrive.
	StatusOpen Status = "open"
	// StatusUnavailable means the camera exists but its source is unreachable.
	StatusUnavailable Status = "unavailable"
)

// Camera is a registered video source.
type Camera struct {
	ID        int64
	Name      string
	Location  string
	SourceURL string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCameraInput carries validated fields for registration.
type CreateCameraInput struct {
	Name      string
	Location  string
	SourceURL string
}

// UpdateCameraInput carries mutable camera fields. Nil pointers leave the
// stored value untouched.
type UpdateCameraInput struct {
	Name      *string
	Location  *string
	SourceURL *string
}
