package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "intel-crawler",
	Short: "Batch company intelligence crawler",
	Long:  "Crawls company websites from a spreadsheet, extracts founding info, about text, and contact email, optionally enriches each company with a 360 report, and writes an Excel output.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Optional .env for local development.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
