package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/ratelimit"
	"github.com/sells-group/lead-cli/internal/source"
	"github.com/sells-group/lead-cli/internal/source/sim"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available source adapters and their rate limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sources"); err != nil {
			return err
		}
		limits, err := ratelimit.NewRegistry(cfg.RateLimits)
		if err != nil {
			return err
		}
		catalog := source.NewCatalog()
		sim.Register(catalog, cfg.Sources.Sim)

		enabled := map[model.Stage][]string{
			model.StageDiscovery:  cfg.Sources.Discovery,
			model.StageEnrichment: cfg.Sources.Enrichment,
			model.StageContacts:   cfg.Sources.Contacts,
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STAGE\tSOURCE\tMAX RECORDS\tCAPACITY\tREFILL/S\tENABLED")
		for _, stage := range []model.Stage{model.StageDiscovery, model.StageEnrichment, model.StageContacts} {
			for _, name := range catalog.Names(stage) {
				a := catalog.Get(name)
				bc := limits.Config(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%t\n",
					stage, name, a.MaxRecords(), bc.Capacity, bc.RefillPerSec, slices.Contains(enabled[stage], name))
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
