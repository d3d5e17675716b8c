package commands

import (
	"coffeescraper/config"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrapes every site once, stores the prices, uploads the reports and mails an alert on a price drop.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		checker, _, closeDB, err := newPriceChecker(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		_, err = checker.CheckAllPrices(ctx)
		return err
	},
}
