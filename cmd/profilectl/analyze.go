package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/profile-dashboard/internal/analyzer"
)

// =============================================================================
// ANALYZE COMMAND
// =============================================================================

func newAnalyzeCmd() *cobra.Command {
	var (
		concurrency int
		email       string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify users that have no AI profile yet",
		Long: `Builds a prompt from each pending user's usage stats and top workflows,
asks the configured Gemini model for a classification, and stores the result.

By default only users without an ai_profile are analyzed. --email limits the
run to one user and re-analyzes them; --force re-analyzes everyone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}

			e, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := e.cfg.RequireAnalyzer(); err != nil {
				return err
			}

			classifier, err := analyzer.NewGenAIClassifier(cmd.Context(), e.cfg.Analyzer.APIKey, e.cfg.Analyzer.Model)
			if err != nil {
				return err
			}

			a := analyzer.New(e.store, classifier, e.logger, analyzer.Options{
				Concurrency:  concurrency,
				TopWorkflows: e.cfg.Analyzer.TopWorkflows,
				Model:        classifier.Model(),
			})
			report, runErr := a.Run(cmd.Context(), strings.TrimSpace(email), force)
			printReport(cmd, report)
			return runErr
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", analyzer.DefaultConcurrency, "concurrent model calls")
	cmd.Flags().StringVarP(&email, "email", "e", "", "only analyze the user with this email")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-analyze users that already have a profile")
	return cmd
}

func printReport(cmd *cobra.Command, r analyzer.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "users:     %d\n", r.Total)
	fmt.Fprintf(out, "succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(out, "skipped:   %d\n", r.Skipped)
	fmt.Fprintf(out, "failed:    %d\n", r.Failed)
	fmt.Fprintf(out, "tokens:    %d in, %d out\n", r.PromptTokens, r.ResponseTokens)
}
