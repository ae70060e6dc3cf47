package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/config"
	"github.com/sakif/profile-dashboard/internal/handler"
	"github.com/sakif/profile-dashboard/internal/logging"
	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/query"
	"github.com/sakif/profile-dashboard/internal/repository"
	sqliteRepo "github.com/sakif/profile-dashboard/internal/repository/sqlite"
	"github.com/sakif/profile-dashboard/internal/server"
)

// =========================================================================
// TEST SERVER
// =========================================================================

type testAPI struct {
	router http.Handler
	store  *sqliteRepo.DB
}

// newTestAPI serves the production router over an in-memory SQLite store,
// so routes and middleware are exactly what the binary mounts.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testAPI{router: mount(t, db), store: db}
}

// mount builds the server without a static build, so only /api is routed.
func mount(t *testing.T, store repository.Store) http.Handler {
	t.Helper()
	cfg := config.Server{StaticDir: filepath.Join(t.TempDir(), "missing"), CORSAllowedOrigins: []string{"*"}}
	return server.New(cfg, store, logging.Discard()).Handler()
}

func (a *testAPI) seed(t *testing.T, userID, email, category string, score int, payments *model.PaymentStats) {
	t.Helper()
	p := &model.UserProfile{
		UserID:       userID,
		UserEmail:    email,
		PaymentStats: payments,
		AIProfile: &model.AIProfile{
			UserCategory:      category,
			Positioning:       model.Positioning{Industry: "零售", Platform: "淘宝"},
			BusinessPotential: model.BusinessPotential{Score: score, Stage: "成长期"},
			AnalyzedAt:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Model:             "test-model",
		},
	}
	require.NoError(t, a.store.Upsert(context.Background(), p))
}

func (a *testAPI) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

type userPage = query.Result[model.UserProfile]

func ids(ps []model.UserProfile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.UserID
	}
	return out
}

// =========================================================================
// GET /api/users
// =========================================================================

func TestHandleList(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "u7", "seven@x.com", "电商", 7, nil)
	api.seed(t, "u9", "nine@x.com", "电商", 9, nil)
	api.seed(t, "u8", "eight@x.com", "教育", 8, nil)

	t.Run("default sort is score desc", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/api/users", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		page := decode[userPage](t, rr)
		assert.Equal(t, []string{"u9", "u8", "u7"}, ids(page.Items))
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, query.DefaultLimit, page.Limit)
	})

	t.Run("min_score=8", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/api/users?min_score=8", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"u9", "u8"}, ids(decode[userPage](t, rr).Items))
	})

	t.Run("category with asc email sort", func(t *testing.T) {
		q := url.Values{"category": {"电商"}, "sort_by": {"user_email"}, "sort_order": {"asc"}}
		rr := api.do(t, http.MethodGet, "/api/users?"+q.Encode(), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"u9", "u7"}, ids(decode[userPage](t, rr).Items))
	})

	t.Run("limit clamps and pages", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/api/users?limit=0&page=2", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[userPage](t, rr)
		assert.Equal(t, 1, page.Limit)
		assert.Equal(t, []string{"u8"}, ids(page.Items))
		assert.Equal(t, 3, page.Total)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/api/users?page=10", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[userPage](t, rr)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
	})
}

func TestHandleList_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		target string
		field  string
	}{
		{"/api/users?min_score=high", "min_score"},
		{"/api/users?min_score=11", "min_score"},
		{"/api/users?page=two", "page"},
		{"/api/users?limit=1.5", "limit"},
		{"/api/users?sort_by=password", "sort_by"},
		{"/api/users?sort_order=up", "sort_order"},
		{"/api/users?start_date=31/12/2025", "start_date"},
		{"/api/users?start_date=2025-06-02&end_date=2025-06-01", "start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			body := decode[handler.ErrorResponse](t, rr)
			assert.Equal(t, "validation_error", body.Error)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

// =========================================================================
// GET /api/users/{id}
// =========================================================================

func TestHandleGet(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "u1", "a@x.com", "电商", 6, nil)

	rr := api.do(t, http.MethodGet, "/api/users/u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[model.UserProfile](t, rr)
	assert.Equal(t, "a@x.com", p.UserEmail)
	assert.NotEmpty(t, p.ID)

	rr = api.do(t, http.MethodGet, "/api/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode[handler.ErrorResponse](t, rr).Error)
}

// =========================================================================
// GET /api/stats and /api/filters
// =========================================================================

func TestHandleStats(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "p1", "p1@x.com", "电商", 9, &model.PaymentStats{PaidCount: 1, PaidAmount: 30})
	api.seed(t, "p2", "p2@x.com", "电商", 5, &model.PaymentStats{UnpaidCount: 2})
	api.seed(t, "e1", "e1@x.com", "教育", 8, nil)

	rr := api.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[query.Stats](t, rr)
	assert.Equal(t, 3, st.TotalUsers)
	assert.Equal(t, 2, st.HighPotentialCount)
	assert.Equal(t, query.PaymentSummary{Total: 2, Paid: 1, Rate: 50, Intent: 1, IntentRate: 50, AvgAmount: 15}, st.PaymentStats["电商"])

	rr = api.do(t, http.MethodGet, "/api/stats?"+url.Values{"category": {"教育"}}.Encode(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	drill := decode[query.Stats](t, rr)
	assert.Equal(t, 1, drill.TotalUsers)
	assert.NotContains(t, drill.PaymentStats, "电商")

	rr = api.do(t, http.MethodGet, "/api/stats?end_date=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleFilters(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "u1", "a@x.com", "电商", 6, nil)

	rr := api.do(t, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	facets := decode[query.Facets](t, rr)
	assert.Equal(t, query.Facets{
		Categories: []string{"电商"},
		Industries: []string{"零售"},
		Platforms:  []string{"淘宝"},
		Stages:     []string{"成长期"},
	}, facets)
}

// =========================================================================
// /api/config/exclusion
// =========================================================================

func TestExclusionEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "u1", "hide@x.com", "电商", 6, nil)
	api.seed(t, "u2", "keep@x.com", "电商", 5, nil)

	rr := api.do(t, http.MethodPost, "/api/config/exclusion",
		map[string]any{"email": "hide@x.com", "exclude_charts": false, "exclude_list": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.ExclusionConfig{Charts: []string{}, List: []string{"hide@x.com"}},
		decode[model.ExclusionConfig](t, rr))

	rr = api.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, []string{"u2"}, ids(decode[userPage](t, rr).Items))

	rr = api.do(t, http.MethodGet, "/api/users/u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "direct lookup ignores exclusions")

	rr = api.do(t, http.MethodGet, "/api/config/exclusion", nil)
	assert.Equal(t, []string{"hide@x.com"}, decode[model.ExclusionConfig](t, rr).List)

	rr = api.do(t, http.MethodDelete, "/api/config/exclusion?email=hide@x.com", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[model.ExclusionConfig](t, rr).List)

	rr = api.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, []string{"u1", "u2"}, ids(decode[userPage](t, rr).Items))
}

func TestExclusionEndpoints_BadInput(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/config/exclusion", bytes.NewBufferString(`{"email":`))
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/config/exclusion", map[string]any{"email": "nobody"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodDelete, "/api/config/exclusion", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =========================================================================
// UPSTREAM FAILURES
// =========================================================================

// downStore fails every call the way a lost database connection does.
type downStore struct{}

var errDown = apperror.Upstream("test: store", errors.New("dial tcp: connection refused"))

func (downStore) Find(context.Context, query.Filter) ([]model.UserProfile, error) { return nil, errDown }
func (downStore) GetByUserID(context.Context, string) (*model.UserProfile, error) { return nil, errDown }
func (downStore) Upsert(context.Context, *model.UserProfile) error                { return errDown }
func (downStore) SetAIProfile(context.Context, string, *model.AIProfile, bool) (bool, error) {
	return false, errDown
}
func (downStore) ListPending(context.Context, string, bool) ([]model.UserProfile, error) {
	return nil, errDown
}
func (downStore) ListExclusions(context.Context) ([]model.ExclusionEntry, error) { return nil, errDown }
func (downStore) UpsertExclusion(context.Context, model.ExclusionEntry) error     { return errDown }
func (downStore) DeleteExclusion(context.Context, string) error                   { return errDown }
func (downStore) Ping(context.Context) error                                      { return errDown }
func (downStore) Close() error                                                    { return nil }

func TestUpstreamErrorsAre503(t *testing.T) {
	router := mount(t, downStore{})

	for _, target := range []string{"/api/users", "/api/users/u1", "/api/stats", "/api/filters", "/api/config/exclusion"} {
		t.Run(target, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
			body := decode[handler.ErrorResponse](t, rr)
			assert.Equal(t, "upstream_store_error", body.Error)
			assert.NotContains(t, body.Message, "dial tcp", "driver detail must not leak")
		})
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// =========================================================================
// SPA
// =========================================================================

func TestSPAHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<div id=root></div>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	h, err := handler.NewSPAHandler(dir, logging.Discard())
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"/", "<div id=root></div>"},
		{"/assets/app.js", "console.log(1)"},
		{"/users/u1", "<div id=root></div>"},
		{"/assets", "<div id=root></div>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, rr.Body.String())
		})
	}
}

func TestSPAHandler_MissingBuild(t *testing.T) {
	_, err := handler.NewSPAHandler(t.TempDir(), logging.Discard())
	assert.Error(t, err)
}
