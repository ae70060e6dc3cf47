package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
)

// ListExclusions returns all entries in the order they were first added.
func (db *DB) ListExclusions(ctx context.Context) ([]model.ExclusionEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT email, exclude_charts, exclude_list, updated_at
		 FROM exclusions
		 ORDER BY seq`,
	)
	if err != nil {
		return nil, apperror.Upstream("sqlite: listing exclusions", err)
	}
	defer rows.Close()

	entries := []model.ExclusionEntry{}
	for rows.Next() {
		var (
			e       model.ExclusionEntry
			updated string
		)
		if err := rows.Scan(&e.Email, &e.ExcludeFromCharts, &e.ExcludeFromList, &updated); err != nil {
			return nil, apperror.Upstream("sqlite: scanning exclusion", err)
		}
		if e.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("sqlite: parsing exclusion timestamp for %s: %w", e.Email, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream("sqlite: iterating exclusions", err)
	}

	return entries, nil
}

// UpsertExclusion inserts e or overwrites both flags of the existing entry.
// The row keeps its seq, so an updated entry stays where it was in the list.
func (db *DB) UpsertExclusion(ctx context.Context, e model.ExclusionEntry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO exclusions (email, exclude_charts, exclude_list, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			exclude_charts = excluded.exclude_charts,
			exclude_list   = excluded.exclude_list,
			updated_at     = excluded.updated_at`,
		e.Email, e.ExcludeFromCharts, e.ExcludeFromList, e.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return apperror.Upstream("sqlite: upserting exclusion", err)
	}
	return nil
}

// DeleteExclusion removes the entry for email, if any.
func (db *DB) DeleteExclusion(ctx context.Context, email string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM exclusions WHERE email = ?`, email); err != nil {
		return apperror.Upstream("sqlite: deleting exclusion", err)
	}
	return nil
}
