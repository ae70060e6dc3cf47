// Package repository defines the storage contracts the service layer depends on.
//
// Two backends implement them: repository/sqlite (embedded, the default) and
// repository/mongo (the production document store). Services only ever see
// these interfaces, so tests swap in hand-written in-memory mocks.
//
// ORDERING CONTRACT:
// Find and ListPending return documents in insertion order. Sorting and
// pagination happen above this layer, and a stable sort over a stable base
// order is what makes repeated queries return identical pages.
package repository

import (
	"context"

	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
)

// ProfileRepository reads and writes user profile documents.
type ProfileRepository interface {
	// Find returns every profile matching f, in insertion order. A backend may
	// push part of f into its native query but must return exactly the
	// profiles for which f.Match is true.
	Find(ctx context.Context, f query.Filter) ([]model.UserProfile, error)

	// GetByUserID returns apperror.ErrNotFound for unknown users.
	GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error)

	// Upsert inserts or replaces the document keyed by UserID. It is used by
	// bulk import; ID, CreatedAt and UpdatedAt are filled in on p.
	Upsert(ctx context.Context, p *model.UserProfile) error

	// SetAIProfile writes the classification for one user. Without force an
	// existing profile is left alone and false is returned.
	SetAIProfile(ctx context.Context, userID string, profile *model.AIProfile, force bool) (bool, error)

	// ListPending selects profiles for the analysis job: the single user with
	// the given email if email is set, every user when force is set, and
	// otherwise every user without an ai_profile.
	ListPending(ctx context.Context, email string, force bool) ([]model.UserProfile, error)
}

// ExclusionRepository persists the exclusion registry.
type ExclusionRepository interface {
	// ListExclusions returns entries in the order they were first added.
	ListExclusions(ctx context.Context) ([]model.ExclusionEntry, error)
	// UpsertExclusion replaces both flags of an existing entry.
	UpsertExclusion(ctx context.Context, e model.ExclusionEntry) error
	// DeleteExclusion is a no-op for unknown emails.
	DeleteExclusion(ctx context.Context, email string) error
}

// Store bundles both repositories with the lifetime of their connection.
type Store interface {
	ProfileRepository
	ExclusionRepository
	Ping(ctx context.Context) error
	Close() error
}
