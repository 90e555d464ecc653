package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/catadmin/internal/resource"
)

// Entry is one journaled operation.
type Entry struct {
	ID         string    `json:"id"`
	Resource   string    `json:"resource"`
	Op         string    `json:"op"`
	Ref        string    `json:"ref,omitempty"`
	RecordID   int64     `json:"recordId,omitempty"`
	Generation uint64    `json:"generation"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EntryFromResult converts a store result into a journal entry with a
// fresh id.
func EntryFromResult(r resource.Result) Entry {
	created := r.Started
	if created.IsZero() {
		created = time.Now()
	}
	return Entry{
		ID:         uuid.NewString(),
		Resource:   r.Resource,
		Op:         string(r.Op),
		Ref:        string(r.Ref),
		RecordID:   r.ID,
		Generation: r.Generation,
		Outcome:    string(r.Outcome),
		Error:      r.Err,
		DurationMS: r.Duration.Milliseconds(),
		CreatedAt:  created.UTC(),
	}
}

// Append stores e.
func (db *DB) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO operations (id, resource, op, ref, record_id, generation, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Resource, e.Op, e.Ref, e.RecordID, int64(e.Generation), e.Outcome, e.Error, e.DurationMS, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// Page sizes accepted by Recent.
const (
	DefaultRecent = 50
	MaxRecent     = 500
)

// Recent returns up to limit entries, newest first. A non-positive limit
// means DefaultRecent and limit is capped at MaxRecent. An empty resource
// matches every resource.
func (db *DB) Recent(ctx context.Context, limit int, resourceName string) ([]Entry, error) {
	limit = ClampLimit(limit)

	var where []string
	var args []any
	if resourceName != "" {
		where = append(where, "resource = ?")
		args = append(args, resourceName)
	}
	q := `SELECT id, resource, op, ref, record_id, generation, outcome, error, duration_ms, created_at FROM operations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var gen, created int64
		if err := rows.Scan(&e.ID, &e.Resource, &e.Op, &e.Ref, &e.RecordID, &gen, &e.Outcome, &e.Error, &e.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Generation = uint64(gen)
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClampLimit maps a requested page size into [1, MaxRecent], using
// DefaultRecent for a non-positive one.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecent
	case limit > MaxRecent:
		return MaxRecent
	}
	return limit
}

// Prune deletes entries created before cutoff and returns how many went.
func (db *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM operations WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}

// Recorder returns a store result callback that appends every result to db.
// Write failures are logged and otherwise ignored.
func (db *DB) Recorder(logger *slog.Logger) func(resource.Result) {
	return func(r resource.Result) {
		if err := db.Append(context.Background(), EntryFromResult(r)); err != nil {
			logger.Error("journal append failed",
				slog.String("resource", r.Resource),
				slog.String("error", err.Error()))
		}
	}
}
