package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
)

// timeLayout is how timestamps are written to TEXT columns and JSON paths.
const timeLayout = time.RFC3339Nano

// Find returns every profile matching f in insertion order.
//
// The WHERE clause built by pushdown is a superset filter: rows it lets
// through are re-checked with f.Match, so pushing down less is always safe.
func (db *DB) Find(ctx context.Context, f query.Filter) ([]model.UserProfile, error) {
	where, args := pushdown(f)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, document FROM user_profiles`+where+` ORDER BY seq`,
		args...,
	)
	if err != nil {
		return nil, apperror.Upstream("sqlite: finding profiles", err)
	}
	defer rows.Close()

	var profiles []model.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		if f.Match(p) {
			profiles = append(profiles, *p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream("sqlite: iterating profiles", err)
	}

	return profiles, nil
}

// pushdown translates the equality parts of f into SQL.
func pushdown(f query.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.RequiresProfile() {
		conds = append(conds, "analyzed = 1")
	}

	eq := func(path, value string) {
		if value != "" {
			conds = append(conds, "json_extract(document, '"+path+"') = ?")
			args = append(args, value)
		}
	}
	if values := f.CategoryValues(); len(values) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
		conds = append(conds, "COALESCE(json_extract(document, '$.ai_profile.user_category'), '') IN ("+placeholders+")")
		for _, v := range values {
			args = append(args, v)
		}
	}
	eq("$.ai_profile.user_subcategory", f.Subcategory)
	eq("$.ai_profile.positioning.industry", f.Industry)
	eq("$.ai_profile.positioning.platform", f.Platform)
	eq("$.ai_profile.business_potential.stage", f.Stage)

	if f.MinScore > 0 {
		conds = append(conds, "json_extract(document, '$.ai_profile.business_potential.score') >= ?")
		args = append(args, f.MinScore)
	}

	if len(f.ExcludedEmails) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.ExcludedEmails)), ",")
		conds = append(conds, "user_email NOT IN ("+placeholders+")")
		for _, e := range f.ExcludedEmails {
			args = append(args, e)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*model.UserProfile, error) {
	var (
		id  string
		doc []byte
	)
	if err := s.Scan(&id, &doc); err != nil {
		// ErrNoRows passes through untouched; callers turn it into NotFound.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperror.Upstream("sqlite: scanning profile", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("sqlite: decoding profile %s: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

// GetByUserID looks a profile up by the platform's user id.
func (db *DB) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, document FROM user_profiles WHERE user_id = ?`,
		userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, err
	}
	return p, nil
}

// Upsert inserts p or replaces the stored document for p.UserID.
//
// The document id, created_at and an existing ai_profile survive the
// replace: imports carry usage and payment data, and must not erase a
// classification that the analysis job already paid for.
func (db *DB) Upsert(ctx context.Context, p *model.UserProfile) error {
	if p.UserID == "" {
		return apperror.ValidationFailed("user_id", "user_id is required")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Upstream("sqlite: beginning upsert", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	existing, err := scanProfile(tx.QueryRowContext(ctx,
		`SELECT id, document FROM user_profiles WHERE user_id = ?`, p.UserID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		p.ID = xid.New().String()
		p.CreatedAt = now
	case err != nil:
		return err
	default:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if p.AIProfile == nil {
			p.AIProfile = existing.AIProfile
		}
	}
	p.UpdatedAt = now

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("sqlite: encoding profile %s: %w", p.UserID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_profiles (id, user_id, user_email, analyzed, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			user_email = excluded.user_email,
			analyzed   = excluded.analyzed,
			document   = excluded.document,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.UserEmail, p.Analyzed(), string(doc),
		p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return apperror.Upstream("sqlite: upserting profile", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Upstream("sqlite: committing upsert", err)
	}
	return nil
}

// SetAIProfile writes the classification for one user in a single statement.
// The analyzed guard in the WHERE clause is what makes a non-forced write a
// no-op for users that already have a profile.
func (db *DB) SetAIProfile(ctx context.Context, userID string, profile *model.AIProfile, force bool) (bool, error) {
	if err := profile.Validate(); err != nil {
		return false, apperror.ValidationFailed("ai_profile", err.Error())
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return false, fmt.Errorf("sqlite: encoding ai profile for %s: %w", userID, err)
	}
	now := time.Now().UTC().Format(timeLayout)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE user_profiles
		 SET document   = json_set(document, '$.ai_profile', json(?), '$.updated_at', ?),
		     analyzed   = 1,
		     updated_at = ?
		 WHERE user_id = ? AND (analyzed = 0 OR ?)`,
		string(raw), now, now, userID, force,
	)
	if err != nil {
		return false, apperror.Upstream("sqlite: setting ai profile", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Upstream("sqlite: setting ai profile", err)
	}
	if n > 0 {
		return true, nil
	}

	// Nothing changed: either the user is unknown or already analyzed.
	var exists int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_profiles WHERE user_id = ?`, userID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.Upstream("sqlite: checking profile", err)
	}
	if exists == 0 {
		return false, apperror.NotFound("user", userID)
	}
	return false, nil
}

// ListPending selects the analysis job's work set.
func (db *DB) ListPending(ctx context.Context, email string, force bool) ([]model.UserProfile, error) {
	q := `SELECT id, document FROM user_profiles`
	var args []any
	switch {
	case email != "":
		q += ` WHERE user_email = ?`
		args = append(args, email)
	case !force:
		q += ` WHERE analyzed = 0`
	}

	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY seq`, args...)
	if err != nil {
		return nil, apperror.Upstream("sqlite: listing pending profiles", err)
	}
	defer rows.Close()

	var profiles []model.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream("sqlite: iterating pending profiles", err)
	}
	return profiles, nil
}
