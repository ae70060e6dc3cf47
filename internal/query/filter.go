// Package query is the filtering and aggregation layer of the dashboard.
//
// It is pure: nothing in here talks to a database. A set of UI parameters is
// compiled into a Filter, the Filter decides which profiles match, and the
// matched population is then sorted, paginated, or aggregated.
//
// HOW THE PIECES FIT:
//
//	Params ──Compile──▶ Filter ──Match──▶ []UserProfile ──▶ Sort.Apply + Paginate   (GET /users)
//	                                                     └─▶ Aggregate              (GET /stats)
//
// Stores may push part of a Filter down into their native query language (see
// repository/mongo), but Filter.Match is always the final word.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
)

// DefaultMinScore is applied when the caller gives no score floor. Because it is
// the lowest valid score, every compiled filter matches analyzed profiles only.
const DefaultMinScore = model.MinBusinessScore

// Scope selects which exclusion facet a compiled filter honors.
type Scope int

const (
	// ScopeNone ignores the exclusion registry.
	ScopeNone Scope = iota
	// ScopeList hides users excluded from the list view.
	ScopeList
	// ScopeCharts hides users excluded from chart aggregation.
	ScopeCharts
)

func (s Scope) String() string {
	switch s {
	case ScopeList:
		return "list"
	case ScopeCharts:
		return "charts"
	default:
		return "none"
	}
}

// Params is the flat bag of optional parameters the UI sends. Empty strings and
// a nil MinScore mean "no constraint".
type Params struct {
	Category    string
	Subcategory string
	Industry    string
	Platform    string
	Stage       string
	MinScore    *int
	Email       string
	StartDate   string
	EndDate     string
}

// Filter is a compiled predicate. Zero-valued fields impose no constraint,
// except MinScore, which Compile always sets.
type Filter struct {
	Category    string
	Subcategory string
	Industry    string
	Platform    string
	Stage       string
	MinScore    int
	// EmailContains is lower-cased; matching is case-insensitive.
	EmailContains string
	// Start and End are inclusive bounds on ai_profile.analyzed_at.
	Start *time.Time
	End   *time.Time
	// ExcludedEmails are exact user_email values to drop.
	ExcludedEmails []string
}

// RequiresProfile reports whether only analyzed profiles can match.
func (f Filter) RequiresProfile() bool {
	return f.MinScore > 0 || f.Category != "" || f.Subcategory != "" ||
		f.Industry != "" || f.Platform != "" || f.Stage != "" ||
		f.Start != nil || f.End != nil
}

// Compile validates p and builds the Filter for the given scope. Exclusion
// entries are consulted only for ScopeList and ScopeCharts.
func Compile(p Params, scope Scope, exclusions []model.ExclusionEntry) (Filter, error) {
	f := Filter{
		Category:      strings.TrimSpace(p.Category),
		Subcategory:   strings.TrimSpace(p.Subcategory),
		Industry:      strings.TrimSpace(p.Industry),
		Platform:      strings.TrimSpace(p.Platform),
		Stage:         strings.TrimSpace(p.Stage),
		MinScore:      DefaultMinScore,
		EmailContains: strings.ToLower(strings.TrimSpace(p.Email)),
	}

	if p.MinScore != nil {
		score := *p.MinScore
		if score < model.MinBusinessScore || score > model.MaxBusinessScore {
			return Filter{}, apperror.ValidationFailed("min_score",
				fmt.Sprintf("min_score must be between %d and %d", model.MinBusinessScore, model.MaxBusinessScore))
		}
		f.MinScore = score
	}

	if s := strings.TrimSpace(p.StartDate); s != "" {
		t, err := ParseDate(s, false)
		if err != nil {
			return Filter{}, apperror.ValidationFailed("start_date", err.Error())
		}
		f.Start = &t
	}
	if s := strings.TrimSpace(p.EndDate); s != "" {
		t, err := ParseDate(s, true)
		if err != nil {
			return Filter{}, apperror.ValidationFailed("end_date", err.Error())
		}
		f.End = &t
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return Filter{}, apperror.ValidationFailed("start_date", "start_date must not be after end_date")
	}

	for _, e := range exclusions {
		if (scope == ScopeList && e.ExcludeFromList) || (scope == ScopeCharts && e.ExcludeFromCharts) {
			f.ExcludedEmails = append(f.ExcludedEmails, e.Email)
		}
	}

	return f, nil
}

// WithCategory returns a copy of f narrowed to one category. It is how the
// stats endpoint drills down.
func (f Filter) WithCategory(category string) Filter {
	f.Category = strings.TrimSpace(category)
	return f
}

// CategoryBucket returns the category a profile is counted and filtered
// under. Profiles the classifier left uncategorized fall into
// model.UncategorizedLabel.
func CategoryBucket(category string) string {
	if category == "" {
		return model.UncategorizedLabel
	}
	return category
}

// CategoryValues lists the stored user_category values that fall into
// f.Category's bucket, for stores pushing the predicate down. Nil means no
// category constraint.
func (f Filter) CategoryValues() []string {
	switch f.Category {
	case "":
		return nil
	case model.UncategorizedLabel:
		return []string{model.UncategorizedLabel, ""}
	default:
		return []string{f.Category}
	}
}

// Match is the authoritative evaluation of the predicate against one profile.
func (f Filter) Match(p *model.UserProfile) bool {
	if p == nil {
		return false
	}
	if len(f.ExcludedEmails) > 0 && slices.Contains(f.ExcludedEmails, p.UserEmail) {
		return false
	}
	if f.EmailContains != "" && !strings.Contains(strings.ToLower(p.UserEmail), f.EmailContains) {
		return false
	}

	ai := p.AIProfile
	if ai == nil {
		return !f.RequiresProfile()
	}

	switch {
	case f.Category != "" && CategoryBucket(ai.UserCategory) != f.Category:
		return false
	case f.Subcategory != "" && ai.UserSubcategory != f.Subcategory:
		return false
	case f.Industry != "" && ai.Positioning.Industry != f.Industry:
		return false
	case f.Platform != "" && ai.Positioning.Platform != f.Platform:
		return false
	case f.Stage != "" && ai.BusinessPotential.Stage != f.Stage:
		return false
	case ai.BusinessPotential.Score < f.MinScore:
		return false
	case f.Start != nil && ai.AnalyzedAt.Before(*f.Start):
		return false
	case f.End != nil && ai.AnalyzedAt.After(*f.End):
		return false
	}
	return true
}

// Select returns the profiles that match f, in their original order.
func (f Filter) Select(profiles []model.UserProfile) []model.UserProfile {
	out := make([]model.UserProfile, 0, len(profiles))
	for i := range profiles {
		if f.Match(&profiles[i]) {
			out = append(out, profiles[i])
		}
	}
	return out
}

// Accepted date layouts, tried in order. Offset-less timestamps are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

const dayLayout = "2006-01-02"

// ParseDate parses an ISO-8601 timestamp or a bare date. A bare date resolves
// to the start of the day, or to its last nanosecond when endOfDay is set, so
// that an end bound covers the whole day.
func ParseDate(s string, endOfDay bool) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected ISO-8601 timestamp or YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
