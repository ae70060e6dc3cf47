package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/repository"
)

// ExclusionService manages the exclusion registry.
//
// Mutations hold mu for the write and the read-back, so each caller gets the
// registry as it stood right after its own change. Concurrent writers to the
// same email are last-writer-wins.
type ExclusionService struct {
	mu     sync.Mutex
	repo   repository.ExclusionRepository
	logger *slog.Logger
}

// NewExclusionService creates an ExclusionService.
func NewExclusionService(repo repository.ExclusionRepository, logger *slog.Logger) *ExclusionService {
	return &ExclusionService{repo: repo, logger: logger}
}

// List returns the registry's current chart and list sets.
func (s *ExclusionService) List(ctx context.Context) (model.ExclusionConfig, error) {
	entries, err := s.repo.ListExclusions(ctx)
	if err != nil {
		s.logger.Error("failed to list exclusions", slog.String("error", err.Error()))
		return model.ExclusionConfig{}, fmt.Errorf("listing exclusions: %w", err)
	}
	return model.NewExclusionConfig(entries), nil
}

// Add sets both flags for email, replacing any earlier entry.
func (s *ExclusionService) Add(ctx context.Context, email string, excludeCharts, excludeList bool) (model.ExclusionConfig, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.ExclusionConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.ExclusionEntry{
		Email:             email,
		ExcludeFromCharts: excludeCharts,
		ExcludeFromList:   excludeList,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := s.repo.UpsertExclusion(ctx, entry); err != nil {
		s.logger.Error("failed to add exclusion",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return model.ExclusionConfig{}, fmt.Errorf("adding exclusion: %w", err)
	}

	s.logger.Info("exclusion set",
		slog.String("email", email),
		slog.Bool("charts", excludeCharts),
		slog.Bool("list", excludeList),
	)
	return s.List(ctx)
}

// Remove deletes the entry for email. Removing an absent email is not an error.
func (s *ExclusionService) Remove(ctx context.Context, email string) (model.ExclusionConfig, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.ExclusionConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteExclusion(ctx, email); err != nil {
		s.logger.Error("failed to remove exclusion",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return model.ExclusionConfig{}, fmt.Errorf("removing exclusion: %w", err)
	}

	s.logger.Info("exclusion removed", slog.String("email", email))
	return s.List(ctx)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return "", apperror.ValidationFailed("email", fmt.Sprintf("%q is not an email address", email))
	}
	return email, nil
}
