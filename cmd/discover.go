package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grantscout/grantscout/internal/app"
	"github.com/grantscout/grantscout/internal/grant"
)

func newDiscoverCmd() *cobra.Command {
	var (
		industry    string
		region      string
		stage       string
		founderType string
		nonDilutive bool
		query       string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Runs one discovery pass and prints the results as JSON",
		Long: `Selects the portals matching the given criteria, crawls them for grant
pages, and prints the ranked results. Pass --query for free-text mode or the
individual criteria flags for form mode.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := app.New(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer application.Close()

			criteria := grant.SearchCriteria{
				Industry:        industry,
				Region:          region,
				Stage:           stage,
				FounderType:     founderType,
				NonDilutiveOnly: nonDilutive,
			}
			mode := grant.ModeForm
			if query != "" {
				criteria.FreeTextQuery = query
				mode = grant.ModeChat
			}

			result := application.Orchestrator.Discover(cmd.Context(), criteria, mode)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&industry, "industry", "", "industry focus, e.g. AI/ML or Healthcare")
	cmd.Flags().StringVar(&region, "region", "", "region focus, e.g. Europe or Global")
	cmd.Flags().StringVar(&stage, "stage", "", "startup stage, e.g. Seed or Growth")
	cmd.Flags().StringVar(&founderType, "founder-type", "", "founder profile, e.g. Student-led")
	cmd.Flags().BoolVar(&nonDilutive, "non-dilutive", false, "only equity-free funding")
	cmd.Flags().StringVar(&query, "query", "", "free-text request; switches to chat mode")
	return cmd
}
