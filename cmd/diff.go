package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/services"
	"github.com/renbrahe/parsing-ski/storage"
	"github.com/renbrahe/parsing-ski/utils"
)

var diffOutput string

func init() {
	diffCmd.Flags().StringVar(&diffOutput, "output", "",
		"diff CSV destination path (default: EXPORT_DIR/skis_diff_<old>_vs_<new>.csv)")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff [previous.csv current.csv]",
	Short: "Diff two snapshot exports and report sold, new and re-priced items.",
	Long: "Diff two snapshot exports and report sold, new and re-priced items.\n" +
		"Without arguments the two most recent exports in EXPORT_DIR are compared,\n" +
		"selected by the timestamp encoded in their filenames.",
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := utils.NewLogger()
		cfg := config.Load()

		var prevPath, currPath string
		switch len(args) {
		case 2:
			prevPath, currPath = args[0], args[1]
		case 0:
			var err error
			prevPath, currPath, err = storage.FindLatestExports(cfg.ExportDir)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("need both snapshot paths, or none to use the latest exports")
		}

		logger.Info("Previous : %s", prevPath)
		logger.Info("Current  : %s", currPath)

		previous, err := storage.ReadSnapshot(prevPath, logger)
		if err != nil {
			return err
		}
		current, err := storage.ReadSnapshot(currPath, logger)
		if err != nil {
			return err
		}

		differ := services.NewDiffer(logger)
		entries := differ.Diff(previous, current)

		reportSvc := services.NewReportService(logger)
		reportSvc.Print(reportSvc.Generate(entries))

		path := diffOutput
		if path == "" {
			path = filepath.Join(cfg.ExportDir, storage.DiffFileName(prevPath, currPath))
		}

		n, err := storage.ExportDiff(entries, path)
		if err != nil {
			return fmt.Errorf("diff export failed: %w", err)
		}
		logger.Info("Diff saved to %s (%d entries, %d bytes)", path, len(entries), n)

		return nil
	},
}
