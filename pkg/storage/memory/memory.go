// Package memory provides an in-memory implementation of storage.ActivityStore
// for testing and single-process deployments. Records are lost when the
// process restarts. Optional capacity limits memory usage by evicting the
// oldest records first.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// Store is an in-memory ActivityStore with optional capacity-based eviction.
type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.ActivityRecord
	ageList *list.List // front = newest, back = oldest
	elems   map[string]*list.Element
	maxSize int // 0 = unlimited
}

// Ensure Store implements storage.ActivityStore at compile time.
var _ storage.ActivityStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the oldest record is evicted when the
// limit is reached.
func New(maxSize int) *Store {
	return &Store{
		records: make(map[string]*storage.ActivityRecord),
		ageList: list.New(),
		elems:   make(map[string]*list.Element),
		maxSize: maxSize,
	}
}

// RecordActivity stores an activity record, assigning ID, CreatedAt and
// Actor defaults when unset.
func (s *Store) RecordActivity(ctx context.Context, rec *storage.ActivityRecord) error {
	if rec.ID == "" {
		rec.ID = storage.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Actor == "" {
		rec.Actor = storage.GetActor(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.records) >= s.maxSize {
		s.evictOldest()
	}

	stored := *rec
	s.records[rec.ID] = &stored
	s.elems[rec.ID] = s.ageList.PushFront(rec.ID)
	return nil
}

// GetActivity retrieves a record by ID.
func (s *Store) GetActivity(_ context.Context, id string) (*storage.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// RecentActivity returns matching records ordered newest first.
func (s *Store) RecentActivity(_ context.Context, opts storage.ListOptions) ([]*storage.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*storage.ActivityRecord
	for _, rec := range s.records {
		if opts.Repo != "" && rec.Repo != opts.Repo {
			continue
		}
		if opts.Branch != "" && rec.Branch != opts.Branch {
			continue
		}
		if !opts.Since.IsZero() && rec.CreatedAt.Before(opts.Since) {
			continue
		}
		out := *rec
		matches = append(matches, &out)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Purge removes records created before the cutoff.
func (s *Store) Purge(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.CreatedAt.Before(olderThan) {
			if elem, ok := s.elems[id]; ok {
				s.ageList.Remove(elem)
				delete(s.elems, id)
			}
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the record inserted earliest.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.ageList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.ageList.Remove(back)
	delete(s.elems, id)
	delete(s.records, id)
}
