package main

import (
	"encoding/json"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/ratelimit"
)

var (
	runIndustry   string
	runLocation   string
	runLimit      int
	runOutput     string
	runFormats    []string
	runRateLimits string
)

// runSummary is printed to stdout when a campaign finishes.
type runSummary struct {
	RunID      string               `json:"run_id"`
	Query      model.Query          `json:"query"`
	Status     model.CampaignStatus `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	ExportPath string               `json:"export_path,omitempty"`
	Stats      model.Stats          `json:"stats"`
	Stages     []model.StageReport  `json:"stages"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a lead generation campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runOutput != "" {
			cfg.Export.Dir = runOutput
		}
		if len(runFormats) > 0 {
			cfg.Export.Formats = runFormats
		}
		if runRateLimits != "" {
			table, err := ratelimit.LoadTable(runRateLimits)
			if err != nil {
				return err
			}
			cfg.RateLimits = table
		}

		env, err := initCampaign("run")
		if err != nil {
			return err
		}

		limit := runLimit
		if limit == 0 {
			limit = cfg.Campaign.DefaultLimit
		}
		q := model.Query{
			Industry: strings.TrimSpace(runIndustry),
			Location: strings.TrimSpace(runLocation),
			Limit:    limit,
		}

		result, runErr := env.newOrchestrator().Run(ctx, q)
		if result != nil {
			out := runSummary{
				RunID:      result.RunID,
				Query:      result.Query,
				Status:     result.Status,
				Reason:     result.Reason,
				ExportPath: result.ExportPath,
				Stats:      result.Stats,
				Stages:     result.Stages,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return eris.Wrap(err, "encode summary")
			}
		}
		if runErr != nil {
			zap.L().Error("campaign failed", zap.Error(runErr))
			return runErr
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "industry to search (required)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "location to search (required)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max businesses to discover (default from config)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "export directory (default from config)")
	runCmd.Flags().StringSliceVar(&runFormats, "format", nil, "export formats: json,csv,txt,xlsx,sqlite (default from config)")
	runCmd.Flags().StringVar(&runRateLimits, "rate-limits", "", "YAML file with a rate_limits table")
	_ = runCmd.MarkFlagRequired("industry")
	_ = runCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(runCmd)
}
