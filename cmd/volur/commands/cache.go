package commands

import (
	"github.com/spf13/cobra"
)

// cacheCmd groups cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the provider response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached quote and fundamentals entry (redis and postgres backends)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Cache().Clear(cmd.Context()); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), "Cache cleared ("+a.cfg.Cache.Backend+")")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
