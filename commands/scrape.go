package commands

import (
	"encoding/json"
	"fmt"

	"coffeescraper/config"
	"coffeescraper/models"
	"coffeescraper/scheduler"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeJSON bool

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "Print the result as JSON.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--json]",
	Short: "Scrapes every site once and prints the prices without storing or distributing them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		scrapers, err := buildScrapers(cfg)
		if err != nil {
			return err
		}

		run := models.NewRun()
		observations := scheduler.ScrapeAll(cmd.Context(), scrapers, nil, run)
		if cheapest, ok := models.Cheapest(observations); ok {
			run.Cheapest = &cheapest
		}
		run.Complete()

		out := cmd.OutOrStdout()
		if scrapeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.AppendHeader(table.Row{"URL", "Price", "Error"})
		for _, o := range run.Observations {
			t.AppendRow(table.Row{o.URL, fmt.Sprintf("%.2f", o.Price), ""})
		}
		for _, f := range run.Failures {
			t.AppendRow(table.Row{f.URL, "", f.Error})
		}
		if run.Cheapest != nil {
			t.AppendFooter(table.Row{"cheapest: " + run.Cheapest.URL, fmt.Sprintf("%.2f", run.Cheapest.Price), ""})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(observations) == 0 {
			return fmt.Errorf("no site produced a price")
		}
		return nil
	},
}
