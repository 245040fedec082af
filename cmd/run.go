package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/model"
)

var (
	runOutput string
	runSheet  string
)

var runCmd = &cobra.Command{
	Use:   "run [input file]",
	Short: "Process a company spreadsheet and write the output workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		output := runOutput
		if output == "" {
			output = cfg.Report.OutputPath
		}
		sheet := runSheet
		if sheet == "" {
			sheet = cfg.Report.SheetName
		}

		// Subscribe before submitting so no event is missed.
		events, cancel := env.Orchestrator.Broker().Subscribe()
		defer cancel()

		jobID, err := env.Orchestrator.Submit(ctx, args[0], output, sheet)
		if err != nil {
			return err
		}
		zap.L().Info("batch submitted", zap.String("job_id", jobID))

		for ev := range events {
			switch ev.Type {
			case model.EventStart:
				zap.L().Info("processing companies", zap.Int("total", ev.Total))
			case model.EventCompanyStart:
				zap.L().Info("company started",
					zap.Int("index", ev.Index),
					zap.Int("total", ev.Total),
					zap.String("company", ev.Company),
				)
			case model.EventCompanyDone:
				fields := []zap.Field{
					zap.Int("completed", ev.Completed),
					zap.Int("total", ev.Total),
					zap.String("company", ev.Company),
				}
				if ev.Headline != nil {
					fields = append(fields,
						zap.Bool("founded", ev.Headline.FoundedInfo != ""),
						zap.Bool("about", ev.Headline.AboutUs != ""),
						zap.Bool("email", ev.Headline.Email != ""),
						zap.Bool("enriched", ev.Headline.Enriched),
					)
					for _, d := range ev.Headline.Diagnostics {
						zap.L().Warn("company diagnostic",
							zap.String("company", ev.Company),
							zap.String("detail", d),
						)
					}
				}
				zap.L().Info("company done", fields...)
			case model.EventDone:
				zap.L().Info("batch complete",
					zap.Int("completed", ev.Completed),
					zap.String("output", output),
				)
				return nil
			case model.EventError:
				return eris.Errorf("batch failed: %s", ev.Message)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOutput, "output", "", "output workbook path (default from config)")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "output sheet name (default from config)")
	rootCmd.AddCommand(runCmd)
}
