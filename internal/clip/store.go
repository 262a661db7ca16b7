package clip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// StorageKey is the single namespaced key the whole clip mapping lives under.
const StorageKey = "video_clips"

// KV is the persistent store collaborator: get/set over one key. No partial
// updates exist, so every write serializes the full mapping.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store persists the mapping from video id to VideoClipSet as one JSON
// document. Every write is a full-document read-modify-write; the store
// provides no isolation between concurrent writers, so callers serialize
// their own write intents.
type Store struct {
	kv     KV
	logger *slog.Logger
}

func NewStore(kv KV, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// GetAll returns the full video-id -> clip-set mapping. The map is never nil.
func (s *Store) GetAll(ctx context.Context) (map[string]*VideoClipSet, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, StorageKey, err)
	}
	if !ok || raw == "" {
		return map[string]*VideoClipSet{}, nil
	}

	var all map[string]*VideoClipSet
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStorageUnavailable, StorageKey, err)
	}
	if all == nil {
		all = map[string]*VideoClipSet{}
	}
	return all, nil
}

// AppendClip adds a new record for videoID, creating the video entry on
// first use. New records start with Downloaded=false.
func (s *Store) AppendClip(ctx context.Context, videoID, sourceURL string, start, end float64) error {
	all, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	set, ok := all[videoID]
	if !ok {
		set = &VideoClipSet{SourceURL: sourceURL}
		all[videoID] = set
	}
	set.Clips = append(set.Clips, Record{Start: start, End: end, Downloaded: false})

	return s.write(ctx, all)
}

// ReplaceClip merges the non-nil fields of update over the record at index.
// Fields absent from the update are preserved.
func (s *Store) ReplaceClip(ctx context.Context, videoID string, index int, update Update) error {
	all, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	set, ok := all[videoID]
	if !ok || index < 0 || index >= len(set.Clips) {
		return fmt.Errorf("%w: video %q index %d", ErrClipNotFound, videoID, index)
	}

	rec := &set.Clips[index]
	if update.Start != nil {
		rec.Start = *update.Start
	}
	if update.End != nil {
		rec.End = *update.End
	}
	if update.Downloaded != nil {
		rec.Downloaded = *update.Downloaded
	}

	return s.write(ctx, all)
}

// DeleteClip removes the record at index. Removing the last record of a
// video removes the whole video entry. A missing video or index is a no-op.
func (s *Store) DeleteClip(ctx context.Context, videoID string, index int) error {
	all, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	set, ok := all[videoID]
	if !ok || index < 0 || index >= len(set.Clips) {
		return nil
	}

	set.Clips = append(set.Clips[:index], set.Clips[index+1:]...)
	if len(set.Clips) == 0 {
		delete(all, videoID)
	}

	return s.write(ctx, all)
}

// MarkDownloaded sets Downloaded=true on the record at index. A missing
// video or index is a no-op.
func (s *Store) MarkDownloaded(ctx context.Context, videoID string, index int) error {
	all, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	set, ok := all[videoID]
	if !ok || index < 0 || index >= len(set.Clips) {
		return nil
	}

	set.Clips[index].Downloaded = true
	return s.write(ctx, all)
}

// ClearDownloaded drops every downloaded record across all videos, removing
// video entries whose lists empty out.
func (s *Store) ClearDownloaded(ctx context.Context) error {
	all, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	for videoID, set := range all {
		kept := set.Clips[:0]
		for _, rec := range set.Clips {
			if !rec.Downloaded {
				kept = append(kept, rec)
			}
		}
		set.Clips = kept
		if len(set.Clips) == 0 {
			delete(all, videoID)
		}
	}

	return s.write(ctx, all)
}

func (s *Store) write(ctx context.Context, all map[string]*VideoClipSet) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorageUnavailable, StorageKey, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, StorageKey, err)
	}
	return nil
}
