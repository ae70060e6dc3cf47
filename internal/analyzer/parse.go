package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sakif/profile-dashboard/internal/model"
)

// ErrInvalidResponse wraps every reason a model reply could not become a profile.
var ErrInvalidResponse = errors.New("invalid classifier response")

// fenced matches a markdown code fence, with or without a language tag.
var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// response is the JSON object the prompt asks for.
type response struct {
	WorkflowAnalysis []workflowResponse `json:"workflow_analysis"`
	UserCategory     string             `json:"user_category"`
	UserSubcategory  string             `json:"user_subcategory"`
	UserProfile      struct {
		PrimaryPurpose string   `json:"primary_purpose"`
		UserType       string   `json:"user_type"`
		ActivityLevel  string   `json:"activity_level"`
		ContentFocus   []string `json:"content_focus"`
		Tags           []string `json:"tags"`
		Summary        string   `json:"summary"`
	} `json:"user_profile"`
	Positioning       model.Positioning `json:"positioning"`
	BusinessPotential struct {
		Score          looseInt `json:"score"`
		Stage          string   `json:"stage"`
		Barrier        string   `json:"barrier"`
		Recommendation string   `json:"recommendation"`
	} `json:"business_potential"`
}

type workflowResponse struct {
	Rank       looseInt `json:"rank"`
	Category   string   `json:"category"`
	Purpose    string   `json:"purpose"`
	Confidence string   `json:"confidence"`
	Reason     string   `json:"reason"`
}

// looseInt accepts 8, 8.0 and "8". Models are not consistent about it.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "null" || s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("not an integer: %s", b)
	}
	*n = looseInt(f)
	return nil
}

// ParseResponse turns the model's reply into an AIProfile. AnalyzedAt and
// Model are left for the caller to stamp.
func ParseResponse(text string) (*model.AIProfile, error) {
	text = strings.TrimSpace(text)
	if m := fenced.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInvalidResponse)
	}

	var r response
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	category := strings.TrimSpace(r.UserCategory)
	if category == "" {
		return nil, fmt.Errorf("%w: user_category missing", ErrInvalidResponse)
	}
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w: unknown user_category %q", ErrInvalidResponse, category)
	}

	score := int(r.BusinessPotential.Score)
	if score < model.MinBusinessScore || score > model.MaxBusinessScore {
		return nil, fmt.Errorf("%w: business_potential.score %d out of range", ErrInvalidResponse, score)
	}

	ai := &model.AIProfile{
		UserCategory:    category,
		UserSubcategory: strings.TrimSpace(r.UserSubcategory),
		PrimaryPurpose:  r.UserProfile.PrimaryPurpose,
		UserType:        r.UserProfile.UserType,
		ActivityLevel:   r.UserProfile.ActivityLevel,
		ContentFocus:    nonNil(r.UserProfile.ContentFocus),
		Tags:            nonNil(r.UserProfile.Tags),
		Summary:         r.UserProfile.Summary,
		Positioning:     r.Positioning,
		BusinessPotential: model.BusinessPotential{
			Score:          score,
			Stage:          r.BusinessPotential.Stage,
			Barrier:        r.BusinessPotential.Barrier,
			Recommendation: r.BusinessPotential.Recommendation,
		},
		WorkflowAnalysis: make([]model.WorkflowAnalysis, 0, len(r.WorkflowAnalysis)),
	}
	for _, w := range r.WorkflowAnalysis {
		ai.WorkflowAnalysis = append(ai.WorkflowAnalysis, model.WorkflowAnalysis{
			Rank:       int(w.Rank),
			Category:   w.Category,
			Purpose:    w.Purpose,
			Confidence: w.Confidence,
			Reason:     w.Reason,
		})
	}
	return ai, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
