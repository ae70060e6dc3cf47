package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/logging"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockStore implements both repository interfaces in memory. Profiles and
// exclusions are kept in slices so iteration order is insertion order, the
// same contract the real stores keep. failWith makes every call fail, for
// exercising the upstream-error paths.

type mockStore struct {
	mu         sync.Mutex
	profiles   []model.UserProfile
	exclusions []model.ExclusionEntry
	failWith   error
}

func newMockStore() *mockStore {
	return &mockStore{}
}

var errStoreDown = apperror.Upstream("mock: store", errors.New("connection refused"))

func (m *mockStore) Find(_ context.Context, f query.Filter) ([]model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return f.Select(m.profiles), nil
}

func (m *mockStore) GetByUserID(_ context.Context, userID string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, p := range m.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("user", userID)
}

func (m *mockStore) Upsert(_ context.Context, p *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for i := range m.profiles {
		if m.profiles[i].UserID == p.UserID {
			if p.AIProfile == nil {
				p.AIProfile = m.profiles[i].AIProfile
			}
			p.ID = m.profiles[i].ID
			m.profiles[i] = *p
			return nil
		}
	}
	p.ID = fmt.Sprintf("mock-%d", len(m.profiles)+1)
	m.profiles = append(m.profiles, *p)
	return nil
}

func (m *mockStore) SetAIProfile(_ context.Context, userID string, profile *model.AIProfile, force bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	for i := range m.profiles {
		if m.profiles[i].UserID != userID {
			continue
		}
		if m.profiles[i].AIProfile != nil && !force {
			return false, nil
		}
		m.profiles[i].AIProfile = profile
		return true, nil
	}
	return false, apperror.NotFound("user", userID)
}

func (m *mockStore) ListPending(_ context.Context, email string, force bool) ([]model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.UserProfile
	for _, p := range m.profiles {
		switch {
		case email != "" && p.UserEmail == email,
			email == "" && (force || p.AIProfile == nil):
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) ListExclusions(_ context.Context) ([]model.ExclusionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return slices.Clone(m.exclusions), nil
}

func (m *mockStore) UpsertExclusion(_ context.Context, e model.ExclusionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for i := range m.exclusions {
		if m.exclusions[i].Email == e.Email {
			m.exclusions[i] = e
			return nil
		}
	}
	m.exclusions = append(m.exclusions, e)
	return nil
}

func (m *mockStore) DeleteExclusion(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.exclusions = slices.DeleteFunc(m.exclusions, func(e model.ExclusionEntry) bool {
		return e.Email == email
	})
	return nil
}

func (m *mockStore) add(ps ...model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, ps...)
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return logging.Discard()
}

func newTestServices(t *testing.T) (*ProfileService, *ExclusionService, *mockStore) {
	t.Helper()
	store := newMockStore()
	logger := testLogger()
	return NewProfileService(store, store, logger), NewExclusionService(store, logger), store
}

func profile(userID, email, category string, score int) model.UserProfile {
	return model.UserProfile{
		UserID:    userID,
		UserEmail: email,
		AIProfile: &model.AIProfile{
			UserCategory:      category,
			BusinessPotential: model.BusinessPotential{Score: score},
			AnalyzedAt:        analyzedAt,
			Model:             "test-model",
		},
	}
}

func userIDs(ps []model.UserProfile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.UserID
	}
	return out
}
