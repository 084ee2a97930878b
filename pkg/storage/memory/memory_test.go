package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

func makeRecord(id string, at time.Time) *storage.ActivityRecord {
	return &storage.ActivityRecord{
		ID:        id,
		Actor:     "alice",
		Operation: "git.commit.success",
		Repo:      "acme/widgets",
		Branch:    "feature/checkout",
		Details:   map[string]any{"files": 3},
		CreatedAt: at,
	}
}

func TestRecordAndGet(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	rec := makeRecord("rec1", time.Now().UTC())
	if err := s.RecordActivity(ctx, rec); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	got, err := s.GetActivity(ctx, "rec1")
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Actor != "alice" {
		t.Errorf("Actor = %q, want alice", got.Actor)
	}
	if got.Operation != "git.commit.success" {
		t.Errorf("Operation = %q", got.Operation)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New(0)
	_, err := s.GetActivity(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordConflict(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	rec := makeRecord("rec1", time.Now().UTC())

	if err := s.RecordActivity(ctx, rec); err != nil {
		t.Fatalf("first RecordActivity failed: %v", err)
	}
	err := s.RecordActivity(ctx, makeRecord("rec1", time.Now().UTC()))
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestRecordAssignsDefaults(t *testing.T) {
	s := New(0)
	ctx := storage.SetActor(context.Background(), "bob")

	rec := &storage.ActivityRecord{Operation: "git.push.success", Repo: "acme/widgets"}
	if err := s.RecordActivity(ctx, rec); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	if rec.ID == "" {
		t.Error("ID not assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}
	if rec.Actor != "bob" {
		t.Errorf("Actor = %q, want bob from context", rec.Actor)
	}
}

func TestRecentActivityFiltersAndOrders(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	seed := []*storage.ActivityRecord{
		{ID: "a", Repo: "acme/widgets", Branch: "main", CreatedAt: base.Add(1 * time.Minute)},
		{ID: "b", Repo: "acme/widgets", Branch: "feature/x", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c", Repo: "acme/other", Branch: "main", CreatedAt: base.Add(3 * time.Minute)},
		{ID: "d", Repo: "acme/widgets", Branch: "main", CreatedAt: base.Add(4 * time.Minute)},
	}
	for _, rec := range seed {
		if err := s.RecordActivity(ctx, rec); err != nil {
			t.Fatalf("seeding %s: %v", rec.ID, err)
		}
	}

	got, err := s.RecentActivity(ctx, storage.ListOptions{Repo: "acme/widgets"})
	if err != nil {
		t.Fatalf("RecentActivity failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].ID != "d" || got[2].ID != "a" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}

	got, _ = s.RecentActivity(ctx, storage.ListOptions{Repo: "acme/widgets", Branch: "main"})
	if len(got) != 2 {
		t.Errorf("branch filter: got %d, want 2", len(got))
	}

	got, _ = s.RecentActivity(ctx, storage.ListOptions{Since: base.Add(3 * time.Minute)})
	if len(got) != 2 {
		t.Errorf("since filter: got %d, want 2", len(got))
	}

	got, _ = s.RecentActivity(ctx, storage.ListOptions{Limit: 1})
	if len(got) != 1 || got[0].ID != "d" {
		t.Errorf("limit: got %v", got)
	}
}

func TestEvictionDropsOldest(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		rec := makeRecord(id, base.Add(time.Duration(i)*time.Second))
		if err := s.RecordActivity(ctx, rec); err != nil {
			t.Fatalf("RecordActivity(%s): %v", id, err)
		}
	}

	if _, err := s.GetActivity(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("oldest record should be evicted, got err = %v", err)
	}
	for _, id := range []string{"b", "c"} {
		if _, err := s.GetActivity(ctx, id); err != nil {
			t.Errorf("GetActivity(%s): %v", id, err)
		}
	}
}

func TestPurge(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		rec := makeRecord(fmt.Sprintf("rec%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordActivity(ctx, rec); err != nil {
			t.Fatalf("RecordActivity: %v", err)
		}
	}

	removed, err := s.Purge(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	got, _ := s.RecentActivity(ctx, storage.ListOptions{})
	if len(got) != 3 {
		t.Errorf("remaining = %d, want 3", len(got))
	}
}

func TestStoredRecordsAreCopies(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	rec := makeRecord("rec1", time.Now().UTC())
	if err := s.RecordActivity(ctx, rec); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	rec.Actor = "mallory"

	got, err := s.GetActivity(ctx, "rec1")
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if got.Actor != "alice" {
		t.Errorf("stored record mutated through caller's pointer: Actor = %q", got.Actor)
	}
}
