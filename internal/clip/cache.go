package clip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Cache is the write-back mirror of the current video's clip list. Edits
// arrive as rapid slider adjustments; writing through on each one would be
// excessive I/O, so edits accumulate in memory under a dirty flag and are
// flushed at lifecycle boundaries. The mutex is never held across store I/O.
type Cache struct {
	store  *Store
	logger *slog.Logger

	mu      sync.Mutex
	videoID string
	clips   []Record
	dirty   bool
	gen     uint64 // bumped on every mutation; lets Flush detect edits that raced it
}

func NewCache(store *Store, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Load replaces the in-memory list with the store's clips for videoID (empty
// when the video has none) and clears the dirty flag. Called whenever the
// current video changes and after structural store operations.
func (c *Cache) Load(ctx context.Context, videoID string) error {
	all, err := c.store.GetAll(ctx)
	if err != nil {
		return err
	}

	var clips []Record
	if set, ok := all[videoID]; ok {
		clips = append(clips, set.Clips...)
	}

	c.mu.Lock()
	c.videoID = videoID
	c.clips = clips
	c.dirty = false
	c.gen++
	c.mu.Unlock()
	return nil
}

// Reset drops the in-memory list without touching the store. Used when the
// current surface is no longer a video.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.videoID = ""
	c.clips = nil
	c.dirty = false
	c.gen++
	c.mu.Unlock()
}

// VideoID returns the video the cache is currently scoped to.
func (c *Cache) VideoID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoID
}

// Dirty reports whether unflushed edits exist.
func (c *Cache) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Len returns the number of clips in the in-memory list.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clips)
}

// Get returns a copy of the record at index.
func (c *Cache) Get(index int) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.clips) {
		return Record{}, false
	}
	return c.clips[index], true
}

// Snapshot returns a copy of the in-memory clip list.
func (c *Cache) Snapshot() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.clips))
	copy(out, c.clips)
	return out
}

// Mutate applies a pure in-memory edit to one bound of the record at index
// and marks the cache dirty. It never touches the store.
func (c *Cache) Mutate(index int, field TimeField, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.clips) {
		return fmt.Errorf("%w: index %d", ErrClipNotFound, index)
	}

	switch field {
	case FieldStart:
		c.clips[index].Start = value
	case FieldEnd:
		c.clips[index].End = value
	default:
		return fmt.Errorf("unknown time field %q", field)
	}

	c.dirty = true
	c.gen++
	return nil
}

// MarkDownloaded flips the in-memory downloaded flag at index. The store is
// updated separately by the lifecycle manager, so this does not set dirty.
func (c *Cache) MarkDownloaded(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && index < len(c.clips) {
		c.clips[index].Downloaded = true
		c.gen++
	}
}

// Generation returns the current mutation counter. A caller that observes a
// generation and later finds it unchanged knows no mutation happened in
// between.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// ReloadIfUnchanged re-reads videoID's clips from the store and installs
// them only if no mutation has happened since gen was observed (and the
// cache is still scoped to videoID). The reconciliation read after a
// download completion runs off the owning goroutine; this guard keeps it
// from overwriting an edit that raced it.
func (c *Cache) ReloadIfUnchanged(ctx context.Context, videoID string, gen uint64) error {
	all, err := c.store.GetAll(ctx)
	if err != nil {
		return err
	}

	var clips []Record
	if set, ok := all[videoID]; ok {
		clips = append(clips, set.Clips...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.videoID != videoID {
		return nil
	}
	c.clips = clips
	c.dirty = false
	c.gen++
	return nil
}

// Flush writes every in-memory record back to the store via ReplaceClip,
// then clears the dirty flag. It is a no-op when clean or when no video is
// current, which keeps rapid repeated lifecycle triggers cheap. A write
// failure leaves the flag set so a later trigger retries.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	if !c.dirty || c.videoID == "" {
		c.mu.Unlock()
		return nil
	}
	videoID := c.videoID
	clips := make([]Record, len(c.clips))
	copy(clips, c.clips)
	gen := c.gen
	c.mu.Unlock()

	for i := range clips {
		rec := clips[i]
		update := Update{Start: &rec.Start, End: &rec.End, Downloaded: &rec.Downloaded}
		if err := c.store.ReplaceClip(ctx, videoID, i, update); err != nil {
			c.logger.Error("flush failed", "video_id", videoID, "index", i, "error", err)
			return err
		}
	}

	c.mu.Lock()
	// Only clear dirty if nothing mutated while the writes were in flight.
	if c.gen == gen {
		c.dirty = false
	}
	c.mu.Unlock()

	c.logger.Debug("flushed clip edits", "video_id", videoID, "count", len(clips))
	return nil
}
