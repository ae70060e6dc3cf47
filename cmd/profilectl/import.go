package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/profile-dashboard/internal/model"
	"github.com/sakif/profile-dashboard/internal/service"
)

// =============================================================================
// IMPORT COMMAND
// =============================================================================

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <profiles.json>",
		Short: "Upsert generated profile documents from a JSON array",
		Long: `Reads a JSON array of user profile documents, as written by the usage
generator, and upserts each by user_id. An existing ai_profile is kept when the
imported record has none. Invalid records are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := readProfiles(args[0])
			if err != nil {
				return err
			}

			e, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			svc := service.NewProfileService(e.store, e.store, e.logger)
			report, err := svc.Import(cmd.Context(), profiles)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported: %d\n", report.Imported)
			fmt.Fprintf(out, "skipped:  %d\n", len(report.Skipped))
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "  #%d %s: %s\n", s.Index, s.UserID, s.Reason)
			}
			return err
		},
	}
}

func readProfiles(path string) ([]model.UserProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var profiles []model.UserProfile
	if err := json.NewDecoder(f).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return profiles, nil
}
