// Package service holds the dashboard's business logic.
//
// Handler (HTTP layer)     → parses requests, writes responses
// Service (business layer) → compiles filters, applies exclusions, aggregates
// Repository (data layer)  → reads/writes documents
//
// Services take repository interfaces, never a concrete store, so the same
// code runs over SQLite, MongoDB or the in-memory mocks in the tests. The
// profilectl import command uses ProfileService too.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
	"github.com/sakif/profile-dashboard/internal/repository"
)

// ProfileService answers the dashboard's read queries.
type ProfileService struct {
	profiles   repository.ProfileRepository
	exclusions repository.ExclusionRepository
	logger     *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, exclusions repository.ExclusionRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles:   profiles,
		exclusions: exclusions,
		logger:     logger,
	}
}

// ListRequest is a parsed GET /users query.
type ListRequest struct {
	Params query.Params
	Sort   query.Sort
	Page   query.Page
}

// List returns one page of the profiles matching req, with list-scoped
// exclusions applied. Total counts the whole filtered set.
func (s *ProfileService) List(ctx context.Context, req ListRequest) (query.Result[model.UserProfile], error) {
	f, err := s.compile(ctx, req.Params, query.ScopeList)
	if err != nil {
		return query.Result[model.UserProfile]{}, err
	}

	profiles, err := s.profiles.Find(ctx, f)
	if err != nil {
		s.logger.Error("failed to list profiles", slog.String("error", err.Error()))
		return query.Result[model.UserProfile]{}, fmt.Errorf("listing profiles: %w", err)
	}

	req.Sort.Apply(profiles)
	return query.Paginate(profiles, req.Page), nil
}

// Get returns one profile by user id. Exclusions do not apply to direct
// lookups.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user id is required")
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to get profile",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}
	return p, nil
}

// Stats aggregates the chart population: profiles analyzed within the date
// range, minus chart-scoped exclusions, optionally narrowed to one category.
func (s *ProfileService) Stats(ctx context.Context, params query.Params, category string) (query.Stats, error) {
	f, err := s.compile(ctx, params, query.ScopeCharts)
	if err != nil {
		return query.Stats{}, err
	}
	category = strings.TrimSpace(category)
	if category != "" {
		f = f.WithCategory(category)
	}

	profiles, err := s.profiles.Find(ctx, f)
	if err != nil {
		s.logger.Error("failed to load stats population", slog.String("error", err.Error()))
		return query.Stats{}, fmt.Errorf("computing stats: %w", err)
	}

	st := query.Aggregate(profiles)

	// A drill-down into an empty category still reports the category, with
	// zeroes everywhere.
	if category != "" {
		if _, ok := st.Categories[category]; !ok {
			st.Categories[category] = query.CategoryCount{Subcategories: map[string]int{}}
		}
		if _, ok := st.PaymentStats[category]; !ok {
			st.PaymentStats[category] = query.PaymentSummary{}
		}
	}
	return st, nil
}

// Filters returns the dropdown values across all analyzed profiles.
func (s *ProfileService) Filters(ctx context.Context) (query.Facets, error) {
	f, err := query.Compile(query.Params{}, query.ScopeNone, nil)
	if err != nil {
		return query.Facets{}, err
	}

	profiles, err := s.profiles.Find(ctx, f)
	if err != nil {
		s.logger.Error("failed to load filter values", slog.String("error", err.Error()))
		return query.Facets{}, fmt.Errorf("collecting filters: %w", err)
	}
	return query.CollectFacets(profiles), nil
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Imported int
	Skipped  []ImportSkip
}

// ImportSkip is one record rejected by validation.
type ImportSkip struct {
	Index  int
	UserID string
	Reason string
}

// Import upserts generated profile documents. Invalid records are skipped
// and reported; a store failure aborts the import.
func (s *ProfileService) Import(ctx context.Context, profiles []model.UserProfile) (ImportReport, error) {
	var report ImportReport

	for i := range profiles {
		p := &profiles[i]
		p.UserID = strings.TrimSpace(p.UserID)
		p.UserEmail = strings.TrimSpace(p.UserEmail)

		if reason := importProblem(p); reason != "" {
			report.Skipped = append(report.Skipped, ImportSkip{Index: i, UserID: p.UserID, Reason: reason})
			s.logger.Warn("skipping invalid profile",
				slog.Int("index", i),
				slog.String("user_id", p.UserID),
				slog.String("reason", reason),
			)
			continue
		}

		if err := s.profiles.Upsert(ctx, p); err != nil {
			s.logger.Error("failed to import profile",
				slog.String("user_id", p.UserID),
				slog.String("error", err.Error()),
			)
			return report, fmt.Errorf("importing profile %s: %w", p.UserID, err)
		}
		report.Imported++
	}

	s.logger.Info("profiles imported",
		slog.Int("imported", report.Imported),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func importProblem(p *model.UserProfile) string {
	if p.UserID == "" {
		return "user_id is required"
	}
	if p.AIProfile != nil {
		if err := p.AIProfile.Validate(); err != nil {
			return err.Error()
		}
	}
	return ""
}

func (s *ProfileService) compile(ctx context.Context, params query.Params, scope query.Scope) (query.Filter, error) {
	entries, err := s.exclusions.ListExclusions(ctx)
	if err != nil {
		s.logger.Error("failed to load exclusions",
			slog.String("scope", scope.String()),
			slog.String("error", err.Error()),
		)
		return query.Filter{}, fmt.Errorf("loading exclusions: %w", err)
	}
	s.logger.Debug("compiling filter",
		slog.String("scope", scope.String()),
		slog.Int("exclusions", len(entries)),
	)
	return query.Compile(params, scope, entries)
}
