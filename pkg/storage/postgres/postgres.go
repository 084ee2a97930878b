// Package postgres provides a PostgreSQL implementation of storage.ActivityStore.
// It uses pgx/v5 for connection pooling and JSONB for operation details.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// Store is a PostgreSQL-backed ActivityStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.ActivityStore at compile time.
var _ storage.ActivityStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// RecordActivity persists an activity record, assigning ID, CreatedAt and
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

	var detailsJSON []byte
	if rec.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, actor, operation, repo, branch, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rec.ID, rec.Actor, rec.Operation, rec.Repo, rec.Branch,
		nullJSON(detailsJSON), rec.CreatedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting activity: %w", err)
	}

	return nil
}

// GetActivity retrieves a record by ID.
func (s *Store) GetActivity(ctx context.Context, id string) (*storage.ActivityRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, actor, operation, repo, branch, details, created_at
		FROM activities
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	return rec, nil
}

// RecentActivity returns matching records ordered newest first.
func (s *Store) RecentActivity(ctx context.Context, opts storage.ListOptions) ([]*storage.ActivityRecord, error) {
	query := `
		SELECT id, actor, operation, repo, branch, details, created_at
		FROM activities
		WHERE 1=1
	`
	var args []any
	argIdx := 1

	if opts.Repo != "" {
		query += fmt.Sprintf(" AND repo = $%d", argIdx)
		args = append(args, opts.Repo)
		argIdx++
	}
	if opts.Branch != "" {
		query += fmt.Sprintf(" AND branch = $%d", argIdx)
		args = append(args, opts.Branch)
		argIdx++
	}
	if !opts.Since.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, opts.Since)
		argIdx++
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var out []*storage.ActivityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return out, nil
}

// Purge removes records created before the cutoff.
func (s *Store) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM activities WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("purging activities: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanRecord reads one activities row into an ActivityRecord.
func scanRecord(row pgx.Row) (*storage.ActivityRecord, error) {
	var rec storage.ActivityRecord
	var detailsJSON *[]byte

	err := row.Scan(&rec.ID, &rec.Actor, &rec.Operation, &rec.Repo, &rec.Branch,
		&detailsJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if detailsJSON != nil {
		if err := json.Unmarshal(*detailsJSON, &rec.Details); err != nil {
			return nil, fmt.Errorf("unmarshaling details: %w", err)
		}
	}
	return &rec, nil
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
