package query

import (
	"math"

	"github.com/sakif/profile-dashboard/internal/model"
)

// RatePrecision is the number of decimal places kept in percentages and
// average amounts.
const RatePrecision = 2

// HighPotentialThreshold: users scoring strictly above it are high potential.
const HighPotentialThreshold = 7

// UndeterminedLabel is what the classifier writes when it cannot decide an
// industry or stage. Such values are left out of the breakdowns.
const UndeterminedLabel = "无法判断"

// Stats is the aggregate served by GET /stats.
type Stats struct {
	TotalUsers         int                       `json:"total_users"`
	HighPotentialCount int                       `json:"high_potential_count"`
	Categories         map[string]CategoryCount  `json:"categories"`
	PaymentStats       map[string]PaymentSummary `json:"payment_stats"`
	Industries         map[string]int            `json:"industries"`
	Stages             map[string]int            `json:"stages"`
}

// CategoryCount is the size of a category and of each of its subcategories.
type CategoryCount struct {
	Count         int            `json:"count"`
	Subcategories map[string]int `json:"subcategories"`
}

// PaymentSummary is the conversion picture for one category. Rate and
// IntentRate are percentages of Total. Paid and Intent never share a user.
type PaymentSummary struct {
	Total      int     `json:"total"`
	Paid       int     `json:"paid"`
	Rate       float64 `json:"rate"`
	Intent     int     `json:"intent"`
	IntentRate float64 `json:"intent_rate"`
	AvgAmount  float64 `json:"avg_amount"`
}

// Aggregate computes Stats over an already filtered population. Profiles
// without an ai_profile are counted in TotalUsers only.
func Aggregate(profiles []model.UserProfile) Stats {
	st := Stats{
		TotalUsers:   len(profiles),
		Categories:   map[string]CategoryCount{},
		PaymentStats: map[string]PaymentSummary{},
		Industries:   map[string]int{},
		Stages:       map[string]int{},
	}
	paidAmounts := map[string]float64{}

	for i := range profiles {
		p := &profiles[i]
		ai := p.AIProfile
		if ai == nil {
			continue
		}

		if ai.BusinessPotential.Score > HighPotentialThreshold {
			st.HighPotentialCount++
		}

		category := CategoryBucket(ai.UserCategory)

		cc := st.Categories[category]
		if cc.Subcategories == nil {
			cc.Subcategories = map[string]int{}
		}
		cc.Count++
		if ai.UserSubcategory != "" {
			cc.Subcategories[ai.UserSubcategory]++
		}
		st.Categories[category] = cc

		ps := st.PaymentStats[category]
		ps.Total++
		switch {
		case p.PaymentStats.Converted():
			ps.Paid++
		case p.PaymentStats.Intending():
			ps.Intent++
		}
		if p.PaymentStats != nil {
			paidAmounts[category] += p.PaymentStats.PaidAmount
		}
		st.PaymentStats[category] = ps

		if v := ai.Positioning.Industry; v != "" && v != UndeterminedLabel {
			st.Industries[v]++
		}
		if v := ai.BusinessPotential.Stage; v != "" && v != UndeterminedLabel {
			st.Stages[v]++
		}
	}

	for category, ps := range st.PaymentStats {
		ps.Rate = Percent(ps.Paid, ps.Total)
		ps.IntentRate = intentPercent(ps.Paid, ps.Intent, ps.Total, ps.Rate)
		ps.AvgAmount = ratio(paidAmounts[category], float64(ps.Total))
		st.PaymentStats[category] = ps
	}
	return st
}

// Percent returns part/total as a rounded percentage, or 0 when total is 0.
func Percent(part, total int) float64 {
	return ratio(float64(part)*100, float64(total))
}

// intentPercent rounds the intent share so that rate + intent rate never
// exceeds the rounded combined share of paid and intent users.
func intentPercent(paid, intent, total int, rate float64) float64 {
	own := Percent(intent, total)
	capped := Round(Percent(paid+intent, total) - rate)
	return math.Max(0, math.Min(own, capped))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round(num / den)
}

// Round rounds v to RatePrecision decimal places.
func Round(v float64) float64 {
	scale := math.Pow10(RatePrecision)
	return math.Round(v*scale) / scale
}
