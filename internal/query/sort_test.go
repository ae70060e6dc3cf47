package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		order     string
		want      Sort
		wantField string // non-empty when an error on that field is expected
	}{
		{"defaults", "", "", DefaultSort, ""},
		{"canonical asc", "stats.total_runs", "asc", Sort{SortByTotalRuns, Asc}, ""},
		{"order is case-insensitive", "user_email", "ASC", Sort{SortByEmail, Asc}, ""},
		{"full score path", "ai_profile.business_potential.score", "", Sort{SortByScore, Desc}, ""},
		{"30d runs alias", "stats.total_runs_30d", "desc", Sort{SortByTotalRuns, Desc}, ""},
		{"30d days alias", "stats.active_days_30d", "", Sort{SortByActiveDays, Desc}, ""},
		{"analyzed_at alias", "ai_profile.analyzed_at", "asc", Sort{SortByAnalyzedAt, Asc}, ""},
		{"unknown field", "created_at", "", Sort{}, "sort_by"},
		{"injection attempt", "$where", "", Sort{}, "sort_by"},
		{"bad order", "", "sideways", Sort{}, "sort_order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.field, tt.order)
			if tt.wantField != "" {
				require.Error(t, err)
				var appErr *apperror.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.wantField, appErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortFields_AllParse(t *testing.T) {
	for _, f := range SortFields() {
		s, err := ParseSort(string(f), "")
		require.NoError(t, err, f)
		assert.Equal(t, f, s.Field)
	}
}

func TestApply_ScoreDescStable(t *testing.T) {
	profiles := []model.UserProfile{
		analyzed("a@x.com", "c", 5),
		analyzed("b@x.com", "c", 9),
		analyzed("c@x.com", "c", 5),
		analyzed("d@x.com", "c", 9),
		analyzed("e@x.com", "c", 7),
	}

	DefaultSort.Apply(profiles)

	// Equal scores keep document order.
	assert.Equal(t, []string{"b@x.com", "d@x.com", "e@x.com", "a@x.com", "c@x.com"}, emails(profiles))
}

func TestApply_MissingValuesLastBothDirections(t *testing.T) {
	build := func() []model.UserProfile {
		return []model.UserProfile{
			analyzed("none1@x.com", "c", 5),
			analyzed("low@x.com", "c", 5, withUsage(10, 1)),
			analyzed("none2@x.com", "c", 5),
			analyzed("high@x.com", "c", 5, withUsage(90, 3)),
		}
	}

	asc := build()
	Sort{SortByTotalRuns, Asc}.Apply(asc)
	assert.Equal(t, []string{"low@x.com", "high@x.com", "none1@x.com", "none2@x.com"}, emails(asc))

	desc := build()
	Sort{SortByTotalRuns, Desc}.Apply(desc)
	assert.Equal(t, []string{"high@x.com", "low@x.com", "none1@x.com", "none2@x.com"}, emails(desc))
}

func TestApply_Fields(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sort     Sort
		profiles []model.UserProfile
		want     []string
	}{
		{
			name: "paid amount desc",
			sort: Sort{SortByPaidAmount, Desc},
			profiles: []model.UserProfile{
				analyzed("small@x.com", "c", 5, withPayments(1, 0, 9.99)),
				analyzed("nopay@x.com", "c", 5),
				analyzed("big@x.com", "c", 5, withPayments(2, 0, 120.5)),
			},
			want: []string{"big@x.com", "small@x.com", "nopay@x.com"},
		},
		{
			name: "paid count asc",
			sort: Sort{SortByPaidCount, Asc},
			profiles: []model.UserProfile{
				analyzed("two@x.com", "c", 5, withPayments(2, 0, 1)),
				analyzed("zero@x.com", "c", 5, withPayments(0, 3, 0)),
			},
			want: []string{"zero@x.com", "two@x.com"},
		},
		{
			name: "active days desc",
			sort: Sort{SortByActiveDays, Desc},
			profiles: []model.UserProfile{
				analyzed("d1@x.com", "c", 5, withUsage(100, 1)),
				analyzed("d20@x.com", "c", 5, withUsage(5, 20)),
			},
			want: []string{"d20@x.com", "d1@x.com"},
		},
		{
			name: "analyzed_at asc, unanalyzed last",
			sort: Sort{SortByAnalyzedAt, Asc},
			profiles: []model.UserProfile{
				unanalyzed("raw@x.com"),
				analyzed("late@x.com", "c", 5, withAnalyzedAt(late)),
				analyzed("early@x.com", "c", 5, withAnalyzedAt(early)),
			},
			want: []string{"early@x.com", "late@x.com", "raw@x.com"},
		},
		{
			name: "email asc",
			sort: Sort{SortByEmail, Asc},
			profiles: []model.UserProfile{
				analyzed("zed@x.com", "c", 5),
				analyzed("amy@x.com", "c", 5),
			},
			want: []string{"amy@x.com", "zed@x.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sort.Apply(tt.profiles)
			assert.Equal(t, tt.want, emails(tt.profiles))
		})
	}
}

func TestApply_Deterministic(t *testing.T) {
	build := func() []model.UserProfile {
		var ps []model.UserProfile
		for i, e := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			ps = append(ps, analyzed(e+"@x.com", "c", 1+i%3))
		}
		return ps
	}

	first := build()
	second := build()
	DefaultSort.Apply(first)
	DefaultSort.Apply(second)

	assert.Equal(t, emails(first), emails(second))
}
