package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the crawl cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired crawl cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.DeleteExpiredCrawls(ctx)
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}

		zap.L().Info("cache purged", zap.Int("deleted", n))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
