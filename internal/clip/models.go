// Package clip implements the agent's core: the persisted clip store, the
// write-back cache for the current video, the serial extraction queue, and
// the lifecycle manager that ties them together.
package clip

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TimeField names which bound of a clip a mutation targets.
type TimeField string

const (
	FieldStart TimeField = "start"
	FieldEnd   TimeField = "end"
)

// Record is one marked time range on a video. Start and End are in seconds.
// A record is addressed by its index in the video's clip list; indices are
// only valid for the lifetime of the snapshot they were read from.
type Record struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Downloaded bool    `json:"downloaded"`
}

// VideoClipSet is the per-video entry in the store: the source URL and the
// ordered clip list. Ordering is insertion order.
type VideoClipSet struct {
	SourceURL string   `json:"url"`
	Clips     []Record `json:"clips"`
}

// Update carries a partial record for ReplaceClip. Nil fields leave the
// existing value untouched.
type Update struct {
	Start      *float64 `json:"start,omitempty"`
	End        *float64 `json:"end,omitempty"`
	Downloaded *bool    `json:"downloaded,omitempty"`
}

// Task is a queued clip-extraction request. It exists only for the lifetime
// of its queue entry and is never persisted.
type Task struct {
	ID        string
	VideoID   string
	SourceURL string
	Start     float64
	End       float64
	FormatID  string
	Index     int
}

func NewTaskID() string {
	return uuid.NewString()
}

var (
	// ErrStorageUnavailable wraps failures to read or write the backing store.
	ErrStorageUnavailable = errors.New("clip store unavailable")

	// ErrClipNotFound is returned when a video id or clip index does not exist.
	ErrClipNotFound = errors.New("clip not found")

	// ErrNoActiveVideo is returned by operations that need a current video.
	ErrNoActiveVideo = errors.New("no active video")

	// ErrPlayerUnavailable is returned when the player bridge cannot be reached
	// or returns an unusable response.
	ErrPlayerUnavailable = errors.New("player unavailable")

	// ErrAlreadyInFlight is returned by Enqueue when the clip's index is
	// currently being extracted.
	ErrAlreadyInFlight = errors.New("clip download already in flight")
)

// RangeError reports an edit that would violate start < end. The message
// names the offending bound so the UI can show it directly.
type RangeError struct {
	Field TimeField
	Value float64
	Bound float64
}

func (e *RangeError) Error() string {
	if e.Field == FieldStart {
		return fmt.Sprintf("start time (%g) must be less than end time (%g)", e.Value, e.Bound)
	}
	return fmt.Sprintf("end time (%g) must be greater than start time (%g)", e.Value, e.Bound)
}
