// Package analyzer runs the batch job that classifies users.
//
// For each pending profile it builds a prompt from the user's usage stats and
// top workflows, asks a Classifier for a JSON verdict, validates it, and
// stores it as the profile's ai_profile. A failure for one user never stops
// the batch; only cancellation or failing to list users does.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/repository"
)

// DefaultConcurrency bounds in-flight model calls.
const DefaultConcurrency = 5

// DefaultTopWorkflows is how many workflows go into a prompt.
const DefaultTopWorkflows = 10

// Options configure one Analyzer.
type Options struct {
	Concurrency  int
	TopWorkflows int
	Model        string
}

// Report summarizes a run.
type Report struct {
	Total          int `json:"total"`
	Succeeded      int `json:"succeeded"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
	PromptTokens   int `json:"prompt_tokens"`
	ResponseTokens int `json:"response_tokens"`
}

// Analyzer classifies pending profiles.
type Analyzer struct {
	profiles   repository.ProfileRepository
	classifier Classifier
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

// New creates an Analyzer. Zero options take the defaults.
func New(profiles repository.ProfileRepository, classifier Classifier, logger *slog.Logger, opts Options) *Analyzer {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.TopWorkflows < 1 {
		opts.TopWorkflows = DefaultTopWorkflows
	}
	return &Analyzer{
		profiles:   profiles,
		classifier: classifier,
		logger:     logger,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type outcome int

const (
	succeeded outcome = iota
	skipped
	failed
)

// counters is updated from the worker goroutines.
type counters struct {
	succeeded, skipped, failed   atomic.Int64
	promptTokens, responseTokens atomic.Int64
}

func (c *counters) report(total int) Report {
	return Report{
		Total:          total,
		Succeeded:      int(c.succeeded.Load()),
		Skipped:        int(c.skipped.Load()),
		Failed:         int(c.failed.Load()),
		PromptTokens:   int(c.promptTokens.Load()),
		ResponseTokens: int(c.responseTokens.Load()),
	}
}

// Run classifies the profiles ListPending(email, force) selects. Naming a
// user by email re-analyzes them even without force.
//
// The returned Report is valid even when err is non-nil: it counts what
// finished before the run was cancelled.
func (a *Analyzer) Run(ctx context.Context, email string, force bool) (Report, error) {
	pending, err := a.profiles.ListPending(ctx, email, force)
	if err != nil {
		return Report{}, fmt.Errorf("listing pending profiles: %w", err)
	}

	a.logger.Info("analysis started",
		slog.Int("users", len(pending)),
		slog.Int("concurrency", a.opts.Concurrency),
		slog.Bool("force", force),
	)

	overwrite := force || email != ""

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)

	for i := range pending {
		p := &pending[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			switch a.analyze(gctx, p, overwrite, &c) {
			case succeeded:
				c.succeeded.Add(1)
			case skipped:
				c.skipped.Add(1)
			case failed:
				c.failed.Add(1)
			}
			return gctx.Err()
		})
	}

	err = g.Wait()
	report := c.report(len(pending))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		a.logger.Warn("analysis interrupted", slog.String("error", err.Error()))
		return report, fmt.Errorf("analysis interrupted: %w", err)
	}

	a.logger.Info("analysis finished",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("prompt_tokens", report.PromptTokens),
		slog.Int("response_tokens", report.ResponseTokens),
	)
	return report, nil
}

// analyze classifies one user and stores the result.
func (a *Analyzer) analyze(ctx context.Context, p *model.UserProfile, overwrite bool, c *counters) outcome {
	log := a.logger.With(slog.String("user_id", p.UserID), slog.String("email", p.UserEmail))

	if len(p.TopWorkflows) == 0 {
		log.Info("skipped: no workflows")
		return skipped
	}

	reply, err := a.classifier.Classify(ctx, BuildPrompt(p, a.opts.TopWorkflows))
	if err != nil {
		// A cancelled run is reported once by Run, not per user.
		if ctx.Err() == nil {
			log.Error("classification failed", slog.String("error", err.Error()))
		}
		return failed
	}
	c.promptTokens.Add(int64(reply.PromptTokens))
	c.responseTokens.Add(int64(reply.ResponseTokens))

	ai, err := ParseResponse(reply.Text)
	if err != nil {
		log.Error("unusable classification", slog.String("error", err.Error()))
		return failed
	}
	ai.AnalyzedAt = a.now()
	ai.Model = a.opts.Model

	written, err := a.profiles.SetAIProfile(ctx, p.UserID, ai, overwrite)
	if err != nil {
		log.Error("failed to store classification", slog.String("error", err.Error()))
		return failed
	}
	if !written {
		log.Info("skipped: already analyzed")
		return skipped
	}

	log.Info("analyzed",
		slog.String("category", ai.UserCategory),
		slog.Int("score", ai.BusinessPotential.Score),
	)
	return succeeded
}
