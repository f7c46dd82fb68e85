package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sourcesCmd lists the registered data providers
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available data sources",
	Long: `Lists the data sources registered at startup.

fmp and finnhub only appear when FMP_API_KEY / FINNHUB_API_KEY are set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available data sources:")
		for _, name := range a.engine.Sources() {
			marker := ""
			if name == a.cfg.Valuation.DefaultSource {
				marker = " (default)"
			}
			fmt.Fprintf(out, "   • %s%s\n", name, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
