package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clipmark/clipmark-agent/internal/player"
)

// Service is the lifecycle surface the API and tray consume.
type Service interface {
	SetCurrentVideo(ctx context.Context, url string) (string, error)
	NewClip(ctx context.Context) (int, error)
	DeleteClip(ctx context.Context, index int) error
	EditTime(ctx context.Context, index int, field TimeField, value float64, seek bool) error
	DownloadClip(ctx context.Context, index int) error
	ClearDownloaded(ctx context.Context) error
	Flush(ctx context.Context) error
	Teardown(ctx context.Context)

	CurrentVideo() (videoID, url string)
	Clips() []Record
	Dirty() bool
	QueueLength() int
	IsDownloading(index int) bool
	Notice() string
}

// Manager orchestrates the store, cache, queue and player. Every mutating
// entry point serializes behind one mutex, store and player I/O included,
// so no two mutations ever interleave. The only work that runs outside the
// lock is the reconciliation read after a download completes, which is
// guarded by the cache's generation counter instead.
type Manager struct {
	store    *Store
	cache    *Cache
	queue    *Queue
	player   player.Service
	formatID string
	logger   *slog.Logger

	mu         sync.Mutex
	currentID  string
	currentURL string
	notice     string
}

func NewManager(store *Store, cache *Cache, queue *Queue, playerSvc player.Service, formatID string, logger *slog.Logger) *Manager {
	m := &Manager{
		store:    store,
		cache:    cache,
		queue:    queue,
		player:   playerSvc,
		formatID: formatID,
		logger:   logger,
	}
	queue.SetCallbacks(m.handleDownloadComplete, m.handleDownloadError)
	return m
}

// SetCurrentVideo switches the manager to the video addressed by url,
// flushing any unsaved edits for the previous video first. A URL without a
// v= parameter is a valid "no video" state: the cache empties and the
// returned id is "".
func (m *Manager) SetCurrentVideo(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cache.Flush(ctx); err != nil {
		m.logger.Warn("flush before video switch failed", "error", err)
	}

	videoID, ok := VideoIDFromURL(url)
	if !ok {
		m.currentID = ""
		m.currentURL = ""
		m.cache.Reset()
		m.logger.Debug("current surface is not a video", "url", url)
		return "", nil
	}

	if err := m.cache.Load(ctx, videoID); err != nil {
		return "", fmt.Errorf("load clips: %w", err)
	}

	m.currentID = videoID
	m.currentURL = url
	m.logger.Info("current video changed", "video_id", videoID)
	return videoID, nil
}

// NewClip appends a clip spanning the full known duration of the current
// video. Requires a current video and a reachable player.
func (m *Manager) NewClip(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentID == "" {
		return 0, ErrNoActiveVideo
	}

	t, err := m.player.GetTime(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPlayerUnavailable, err)
	}

	if err := m.store.AppendClip(ctx, m.currentID, m.currentURL, 0, t.Duration); err != nil {
		return 0, err
	}
	if err := m.cache.Load(ctx, m.currentID); err != nil {
		return 0, err
	}

	index := m.cache.Len() - 1
	m.logger.Info("clip created", "video_id", m.currentID, "index", index, "end", t.Duration)
	return index, nil
}

// DeleteClip removes the clip at index from the store and refreshes the
// cache. An invalid index is a no-op.
func (m *Manager) DeleteClip(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentID == "" {
		return ErrNoActiveVideo
	}

	if err := m.store.DeleteClip(ctx, m.currentID, index); err != nil {
		return err
	}
	if err := m.cache.Load(ctx, m.currentID); err != nil {
		return err
	}

	m.logger.Info("clip deleted", "video_id", m.currentID, "index", index)
	return nil
}

// EditTime validates and applies an in-memory edit to one bound of the clip
// at index. When seek is set the player is moved to the new value first,
// best-effort: a seek failure is logged but never blocks the edit. The edit
// only marks the cache dirty; nothing is written until a flush trigger.
func (m *Manager) EditTime(ctx context.Context, index int, field TimeField, value float64, seek bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentID == "" {
		return ErrNoActiveVideo
	}

	rec, ok := m.cache.Get(index)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrClipNotFound, index)
	}

	switch field {
	case FieldStart:
		if value >= rec.End {
			return &RangeError{Field: FieldStart, Value: value, Bound: rec.End}
		}
	case FieldEnd:
		if value <= rec.Start {
			return &RangeError{Field: FieldEnd, Value: value, Bound: rec.Start}
		}
	default:
		return fmt.Errorf("unknown time field %q", field)
	}

	if seek {
		if err := m.player.SetTime(ctx, value); err != nil {
			m.logger.Warn("player seek failed", "video_id", m.currentID, "seconds", value, "error", err)
		}
	}

	return m.cache.Mutate(index, field, value)
}

// DownloadClip resolves the clip's current bounds from the cache and hands
// an extraction task to the queue. A clip already in flight surfaces
// ErrAlreadyInFlight and leaves the queue untouched.
func (m *Manager) DownloadClip(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentID == "" {
		return ErrNoActiveVideo
	}

	rec, ok := m.cache.Get(index)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrClipNotFound, index)
	}

	task := Task{
		ID:        NewTaskID(),
		VideoID:   m.currentID,
		SourceURL: m.currentURL,
		Start:     rec.Start,
		End:       rec.End,
		FormatID:  m.formatID,
		Index:     index,
	}

	if err := m.queue.Enqueue(task); err != nil {
		if errors.Is(err, ErrAlreadyInFlight) {
			m.notice = "This clip is already being downloaded"
		}
		return err
	}

	m.logger.Info("clip download queued", "task_id", task.ID, "video_id", task.VideoID, "index", index)
	return nil
}

// ClearDownloaded drops every downloaded clip from the store and refreshes
// the cache when a video is current.
func (m *Manager) ClearDownloaded(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ClearDownloaded(ctx); err != nil {
		return err
	}
	if m.currentID != "" {
		if err := m.cache.Load(ctx, m.currentID); err != nil {
			return err
		}
	}

	m.logger.Info("downloaded clips cleared")
	return nil
}

// Flush writes unsaved edits back to the store. Lifecycle triggers may call
// this in rapid succession; the cache's dirty guard keeps repeats cheap.
func (m *Manager) Flush(ctx context.Context) error {
	return m.cache.Flush(ctx)
}

// Teardown is the one-shot flush raised when the hosting process is about to
// go away. Failures are logged only; there is nobody left to surface them to.
func (m *Manager) Teardown(ctx context.Context) {
	m.logger.Info("teardown flush")
	if err := m.cache.Flush(ctx); err != nil {
		m.logger.Error("teardown flush failed", "error", err)
	}
}

// CurrentVideo returns the current video id and source URL.
func (m *Manager) CurrentVideo() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID, m.currentURL
}

// Clips returns a snapshot of the current video's in-memory clip list.
func (m *Manager) Clips() []Record {
	return m.cache.Snapshot()
}

// Dirty reports whether unflushed edits exist.
func (m *Manager) Dirty() bool {
	return m.cache.Dirty()
}

// QueueLength returns the number of unresolved extraction tasks.
func (m *Manager) QueueLength() int {
	return m.queue.Length()
}

// IsDownloading reports whether the clip at index is being extracted.
func (m *Manager) IsDownloading(index int) bool {
	return m.queue.IsDownloading(index)
}

// Notice returns the last user-visible queue message, cleared on the next
// successful extraction.
func (m *Manager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// handleDownloadComplete is the queue's success callback. It re-enters the
// single-owner mutation path: the record is marked downloaded in the store
// and in the cache when the current video still matches. A background
// reconciliation read then picks up any cross-session changes, but only
// installs its result if no mutation happened after the generation captured
// here — an edit landing mid-read always wins.
func (m *Manager) handleDownloadComplete(videoID string, index int) {
	ctx := context.Background()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.MarkDownloaded(ctx, videoID, index); err != nil {
		m.logger.Error("failed to mark clip downloaded", "video_id", videoID, "index", index, "error", err)
	}

	if m.currentID == videoID {
		m.cache.MarkDownloaded(index)
		if !m.cache.Dirty() {
			gen := m.cache.Generation()
			go func() {
				if err := m.cache.ReloadIfUnchanged(ctx, videoID, gen); err != nil {
					m.logger.Warn("reconciliation read failed", "video_id", videoID, "error", err)
				}
			}()
		}
	}

	m.notice = ""
}

// handleDownloadError is the queue's failure callback; the message is
// already composed for the UI.
func (m *Manager) handleDownloadError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notice = msg
}
