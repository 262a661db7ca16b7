package clip

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clipmark/clipmark-agent/internal/extractor"
)

// CompleteFunc is invoked after a successful extraction.
type CompleteFunc func(videoID string, index int)

// ErrorFunc is invoked with a user-visible message after a failed extraction.
type ErrorFunc func(msg string)

// Queue submits clip extraction tasks to the remote worker one at a time, in
// FIFO order. An index joins the in-flight set when its task is picked up
// and leaves it when the call resolves; Enqueue rejects indices that are in
// flight, so the worker never sees two concurrent calls for the same clip.
// A failed task is discarded after its single attempt — resubmission is the
// caller's job.
type Queue struct {
	extractor  extractor.Service
	onComplete CompleteFunc
	onError    ErrorFunc
	logger     *slog.Logger

	mu       sync.Mutex
	pending  []Task
	inFlight map[int]bool

	wake chan struct{}
}

func NewQueue(svc extractor.Service, logger *slog.Logger) *Queue {
	return &Queue{
		extractor: svc,
		logger:    logger,
		inFlight:  map[int]bool{},
		wake:      make(chan struct{}, 1),
	}
}

// SetCallbacks wires completion and error notification. Must be called
// before Start.
func (q *Queue) SetCallbacks(onComplete CompleteFunc, onError ErrorFunc) {
	q.onComplete = onComplete
	q.onError = onError
}

// Enqueue appends task to the tail of the queue. It fails fast with
// ErrAlreadyInFlight when the task's index is currently being extracted,
// without touching the queue.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()
	if q.inFlight[task.Index] {
		q.mu.Unlock()
		return ErrAlreadyInFlight
	}
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Length returns the number of tasks not yet completed, including the one
// in flight. A task leaves the count only by resolving.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsDownloading reports whether the clip at index is currently in flight.
func (q *Queue) IsDownloading(index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight[index]
}

// Start runs the single worker loop until ctx is cancelled. Exactly one
// remote call is in flight at any time; tasks complete in submission order.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("extraction queue started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("extraction queue stopping")
			return
		case <-q.wake:
		}
		q.drain(ctx)
	}
}

func (q *Queue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		// Peek rather than pop: the head stays queued (and counted) until
		// its call resolves.
		task := q.pending[0]
		q.inFlight[task.Index] = true
		q.mu.Unlock()

		q.process(ctx, task)

		q.mu.Lock()
		q.pending = q.pending[1:]
		delete(q.inFlight, task.Index)
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (q *Queue) process(ctx context.Context, task Task) {
	log := q.logger.With("task_id", task.ID, "video_id", task.VideoID, "index", task.Index)
	log.Info("extracting clip", "start", task.Start, "end", task.End)

	err := q.extractor.Extract(ctx, extractor.Request{
		URL:       task.SourceURL,
		StartTime: task.Start,
		EndTime:   task.End,
		FormatID:  task.FormatID,
	})
	if err != nil {
		log.Error("clip extraction failed", "error", err)
		if q.onError != nil {
			q.onError("Failed to download clip: " + err.Error())
		}
		return
	}

	log.Info("clip extraction completed")
	if q.onComplete != nil {
		q.onComplete(task.VideoID, task.Index)
	}
}
