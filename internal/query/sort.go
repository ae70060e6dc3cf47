package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/model"
)

// SortField is one of the closed set of sortable document paths.
type SortField string

const (
	SortByScore      SortField = "business_potential.score"
	SortByTotalRuns  SortField = "stats.total_runs"
	SortByActiveDays SortField = "stats.active_days"
	SortByPaidAmount SortField = "payment_stats.paid_amount"
	SortByPaidCount  SortField = "payment_stats.paid_count"
	SortByAnalyzedAt SortField = "analyzed_at"
	SortByEmail      SortField = "user_email"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort is a resolved sort key and direction.
type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort puts the most promising users first.
var DefaultSort = Sort{Field: SortByScore, Order: Desc}

// sortAliases maps the full document paths and the older 30-day counter names
// the UI has used onto the canonical field.
var sortAliases = map[string]SortField{
	"ai_profile.business_potential.score": SortByScore,
	"ai_profile.analyzed_at":              SortByAnalyzedAt,
	"stats.total_runs_30d":                SortByTotalRuns,
	"stats.active_days_30d":               SortByActiveDays,
}

// sortKey holds whichever of its fields the sort field extracts; the others
// stay zero and compare equal.
type sortKey struct {
	num  float64
	at   time.Time
	text string
}

func (k sortKey) compare(o sortKey) int {
	if c := cmp.Compare(k.num, o.num); c != 0 {
		return c
	}
	if c := k.at.Compare(o.at); c != 0 {
		return c
	}
	return strings.Compare(k.text, o.text)
}

// extractors return the key for a profile, or false when the document has no
// value for the field.
var extractors = map[SortField]func(*model.UserProfile) (sortKey, bool){
	SortByScore: func(p *model.UserProfile) (sortKey, bool) {
		score, ok := p.Score()
		return sortKey{num: float64(score)}, ok
	},
	SortByTotalRuns: func(p *model.UserProfile) (sortKey, bool) {
		if p.Stats == nil {
			return sortKey{}, false
		}
		return sortKey{num: float64(p.Stats.TotalRuns)}, true
	},
	SortByActiveDays: func(p *model.UserProfile) (sortKey, bool) {
		if p.Stats == nil {
			return sortKey{}, false
		}
		return sortKey{num: float64(p.Stats.ActiveDays)}, true
	},
	SortByPaidAmount: func(p *model.UserProfile) (sortKey, bool) {
		if p.PaymentStats == nil {
			return sortKey{}, false
		}
		return sortKey{num: p.PaymentStats.PaidAmount}, true
	},
	SortByPaidCount: func(p *model.UserProfile) (sortKey, bool) {
		if p.PaymentStats == nil {
			return sortKey{}, false
		}
		return sortKey{num: float64(p.PaymentStats.PaidCount)}, true
	},
	SortByAnalyzedAt: func(p *model.UserProfile) (sortKey, bool) {
		if p.AIProfile == nil || p.AIProfile.AnalyzedAt.IsZero() {
			return sortKey{}, false
		}
		return sortKey{at: p.AIProfile.AnalyzedAt}, true
	},
	SortByEmail: func(p *model.UserProfile) (sortKey, bool) {
		return sortKey{text: p.UserEmail}, p.UserEmail != ""
	},
}

// SortFields lists the canonical sort fields.
func SortFields() []SortField {
	return []SortField{
		SortByScore, SortByTotalRuns, SortByActiveDays,
		SortByPaidAmount, SortByPaidCount, SortByAnalyzedAt, SortByEmail,
	}
}

// ParseSort resolves sort_by and sort_order. Empty values take the defaults;
// anything outside the closed sets is a validation error.
func ParseSort(field, order string) (Sort, error) {
	s := DefaultSort

	if field = strings.TrimSpace(field); field != "" {
		f := SortField(field)
		if alias, ok := sortAliases[field]; ok {
			f = alias
		}
		if _, ok := extractors[f]; !ok {
			return Sort{}, apperror.ValidationFailed("sort_by", fmt.Sprintf("unsupported sort field %q", field))
		}
		s.Field = f
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "":
	case string(Asc):
		s.Order = Asc
	case string(Desc):
		s.Order = Desc
	default:
		return Sort{}, apperror.ValidationFailed("sort_order", fmt.Sprintf("sort_order must be asc or desc, got %q", order))
	}

	return s, nil
}

// Apply sorts profiles in place. The sort is stable, so ties keep document
// order, and documents missing the field go last in either direction.
func (s Sort) Apply(profiles []model.UserProfile) {
	extract, ok := extractors[s.Field]
	if !ok {
		extract = extractors[DefaultSort.Field]
	}
	desc := s.Order == Desc

	slices.SortStableFunc(profiles, func(a, b model.UserProfile) int {
		ka, okA := extract(&a)
		kb, okB := extract(&b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		c := ka.compare(kb)
		if desc {
			return -c
		}
		return c
	})
}
