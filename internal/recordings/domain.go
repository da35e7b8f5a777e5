package recordings

import "time"

// Recording is one stored video clip.
type Recording struct {
	ID         int64
	CameraID   int64
	URL        string
	SizeBytes  int64
	RecordedAt time.Time
	CreatedAt  time.Time
}
