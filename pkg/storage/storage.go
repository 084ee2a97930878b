package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityRecord is one observed git operation on a shared repository.
// Records are immutable once written.
type ActivityRecord struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id"`

	// Actor identifies who performed the operation (user or session name).
	Actor string `json:"actor"`

	// Operation is the dotted operation name, e.g. "git.commit.success".
	Operation string `json:"operation"`

	// Repo is the repository the operation touched.
	Repo string `json:"repo"`

	// Branch is the branch the operation touched, if any.
	Branch string `json:"branch,omitempty"`

	// Details carries operation-specific fields (changed files, messages).
	Details map[string]any `json:"details,omitempty"`

	// CreatedAt is when the operation was observed.
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecordID returns a fresh UUID for an activity record.
func NewRecordID() string {
	return uuid.NewString()
}

// ListOptions filters and bounds a RecentActivity query.
type ListOptions struct {
	// Repo restricts results to one repository. Empty matches all.
	Repo string

	// Branch restricts results to one branch. Empty matches all.
	Branch string

	// Since excludes records created before this instant. Zero means no bound.
	Since time.Time

	// Limit caps the number of records returned, newest first.
	// Zero or negative applies the adapter default of 20; the ceiling is 100.
	Limit int
}

// ActivityStore persists and queries team activity records.
//
// RecordActivity assigns ID and CreatedAt when they are unset, and fills
// Actor from the context when the record carries none.
type ActivityStore interface {
	RecordActivity(ctx context.Context, rec *ActivityRecord) error

	// GetActivity retrieves a record by ID. Returns ErrNotFound when absent.
	GetActivity(ctx context.Context, id string) (*ActivityRecord, error)

	// RecentActivity returns matching records ordered newest first.
	RecentActivity(ctx context.Context, opts ListOptions) ([]*ActivityRecord, error)

	// Purge removes records created before the cutoff and reports how many
	// were removed.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	Close() error
}
