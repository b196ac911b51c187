package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/ingest"
)

var (
	ingestArchivePath string
	ingestSheetPath   string
	ingestJSONPath    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a registry archive against the territory sheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pipeline := ingest.New(cfg)
		result, err := pipeline.Run(ctx, ingestArchivePath, ingestSheetPath)
		if err != nil {
			return eris.Wrap(err, failureMessage(err))
		}

		logSummary(result)

		if ingestJSONPath != "" {
			if err := writeResultJSON(ingestJSONPath, result); err != nil {
				return err
			}
			zap.L().Info("result written", zap.String("path", ingestJSONPath))
		}
		return nil
	},
}

// failureMessage maps the pipeline's failure taxonomy onto operator-facing
// wording.
func failureMessage(err error) string {
	switch ingest.KindOf(err) {
	case ingest.SourceUnavailable:
		return "input could not be read"
	case ingest.NoUsableRows:
		return "inputs contained no usable rows"
	case ingest.ExternalAPIError:
		return "open-data api request failed"
	default:
		return "ingest"
	}
}

func logSummary(result *ingest.Result) {
	zap.L().Info("ingest summary",
		zap.Int("records", len(result.Records)),
		zap.Int("managers", len(result.Managers)),
		zap.Int("matched", result.Stats.Matched),
		zap.Int("unassigned", result.Stats.Unassigned),
		zap.Int("coords_resolved", result.Stats.CoordsResolved),
		zap.Int("rows_deduped", result.Stats.RowsDeduped),
	)
}

func writeResultJSON(path string, result *ingest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "encode result")
	}
	return nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestArchivePath, "archive", "", "path to the registry zip archive (required)")
	ingestCmd.Flags().StringVar(&ingestSheetPath, "sheet", "", "path to the territory assignment xlsx (required)")
	ingestCmd.Flags().StringVar(&ingestJSONPath, "json", "", "write the enriched result to this JSON file")
	_ = ingestCmd.MarkFlagRequired("archive")
	_ = ingestCmd.MarkFlagRequired("sheet")
	rootCmd.AddCommand(ingestCmd)
}
