// Package model defines the data structures used throughout the application.
//
// A UserProfile is one document in the profile collection. Two external jobs
// write to it: the usage generator (stats, top_workflows) and the payment
// updater (payment_stats). This service only ever writes ai_profile, and only
// through the analysis job.
//
// Every struct carries both `json` and `bson` tags. The JSON shape is the HTTP
// contract and the SQLite document encoding; the BSON shape is what lives in
// MongoDB. They use the same snake_case field names so a document exported from
// one store can be imported into the other unchanged.
package model

import (
	"fmt"
	"time"
)

// UncategorizedLabel is the bucket used when the classifier returns no category.
const UncategorizedLabel = "其他"

// Business potential score bounds.
const (
	MinBusinessScore = 1
	MaxBusinessScore = 10
)

// UserProfile is the per-user document. ID is the storage document id; UserID
// is the platform's own identifier and is what the API addresses users by.
type UserProfile struct {
	ID           string        `json:"id"                      bson:"-"`
	UserID       string        `json:"user_id"                 bson:"user_id"`
	UserEmail    string        `json:"user_email"              bson:"user_email"`
	AIProfile    *AIProfile    `json:"ai_profile"              bson:"ai_profile"`
	Stats        *UsageStats   `json:"stats,omitempty"         bson:"stats,omitempty"`
	PaymentStats *PaymentStats `json:"payment_stats,omitempty" bson:"payment_stats,omitempty"`
	TopWorkflows []TopWorkflow `json:"top_workflows"           bson:"top_workflows"`
	CreatedAt    time.Time     `json:"created_at"              bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"              bson:"updated_at"`
}

// Analyzed reports whether the classification job has produced a profile.
func (p *UserProfile) Analyzed() bool {
	return p.AIProfile != nil
}

// Score returns the business potential score, or false for unanalyzed users.
func (p *UserProfile) Score() (int, bool) {
	if p.AIProfile == nil {
		return 0, false
	}
	return p.AIProfile.BusinessPotential.Score, true
}

// AIProfile is the classification record for one user.
type AIProfile struct {
	UserCategory      string             `json:"user_category"              bson:"user_category"`
	UserSubcategory   string             `json:"user_subcategory,omitempty" bson:"user_subcategory,omitempty"`
	PrimaryPurpose    string             `json:"primary_purpose,omitempty"  bson:"primary_purpose,omitempty"`
	UserType          string             `json:"user_type,omitempty"        bson:"user_type,omitempty"`
	ActivityLevel     string             `json:"activity_level,omitempty"   bson:"activity_level,omitempty"`
	ContentFocus      []string           `json:"content_focus"              bson:"content_focus"`
	Tags              []string           `json:"tags"                       bson:"tags"`
	Summary           string             `json:"summary"                    bson:"summary"`
	Positioning       Positioning        `json:"positioning"                bson:"positioning"`
	BusinessPotential BusinessPotential  `json:"business_potential"         bson:"business_potential"`
	WorkflowAnalysis  []WorkflowAnalysis `json:"workflow_analysis"          bson:"workflow_analysis"`
	AnalyzedAt        time.Time          `json:"analyzed_at"                bson:"analyzed_at"`
	Model             string             `json:"model"                      bson:"model"`
}

// Validate checks that the record is complete. A profile is either absent or
// passes Validate; nothing in between is ever written.
func (a *AIProfile) Validate() error {
	if a.UserCategory == "" {
		return fmt.Errorf("ai profile: user_category is required")
	}
	score := a.BusinessPotential.Score
	if score < MinBusinessScore || score > MaxBusinessScore {
		return fmt.Errorf("ai profile: business_potential.score %d out of range [%d, %d]",
			score, MinBusinessScore, MaxBusinessScore)
	}
	if a.AnalyzedAt.IsZero() {
		return fmt.Errorf("ai profile: analyzed_at is required")
	}
	if a.Model == "" {
		return fmt.Errorf("ai profile: model is required")
	}
	return nil
}

// Positioning describes where the user sits in the market.
type Positioning struct {
	Industry      string `json:"industry"       bson:"industry"`
	BusinessScale string `json:"business_scale" bson:"business_scale"`
	Platform      string `json:"platform"       bson:"platform"`
	ContentType   string `json:"content_type"   bson:"content_type"`
}

// BusinessPotential is the commercial-value estimate. Score is 1-10.
type BusinessPotential struct {
	Score          int    `json:"score"          bson:"score"`
	Stage          string `json:"stage"          bson:"stage"`
	Barrier        string `json:"barrier"        bson:"barrier"`
	Recommendation string `json:"recommendation" bson:"recommendation"`
}

// WorkflowAnalysis is the classifier's reading of one of the user's top workflows.
type WorkflowAnalysis struct {
	Rank       int    `json:"rank"               bson:"rank"`
	Category   string `json:"category,omitempty" bson:"category,omitempty"`
	Purpose    string `json:"purpose"            bson:"purpose"`
	Confidence string `json:"confidence"         bson:"confidence"`
	Reason     string `json:"reason"             bson:"reason"`
}

// UsageStats are precomputed counters from the usage generator.
type UsageStats struct {
	TotalRuns  int    `json:"total_runs"       bson:"total_runs"`
	ActiveDays int    `json:"active_days"      bson:"active_days"`
	Period     string `json:"period,omitempty" bson:"period,omitempty"`
}

// PaymentStats are order counters from the payment updater. Amounts are USD.
type PaymentStats struct {
	PaidCount        int     `json:"paid_count"         bson:"paid_count"`
	UnpaidCount      int     `json:"unpaid_count"       bson:"unpaid_count"`
	PaidAmount       float64 `json:"paid_amount"        bson:"paid_amount"`
	UnpaidAmount     float64 `json:"unpaid_amount"      bson:"unpaid_amount"`
	IsPaidUser       bool    `json:"is_paid_user"       bson:"is_paid_user"`
	HasPaymentIntent bool    `json:"has_payment_intent" bson:"has_payment_intent"`
}

// Converted reports at least one successful payment.
func (s *PaymentStats) Converted() bool {
	return s != nil && s.PaidCount >= 1
}

// Intending reports payment attempts with no success. It is never true when
// Converted is true.
func (s *PaymentStats) Intending() bool {
	return s != nil && s.PaidCount == 0 && s.UnpaidCount >= 1
}
