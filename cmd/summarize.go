package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/spf13/cobra"
)

func newSummarizeCmd(root *rootOptions) *cobra.Command {
	var (
		sentences int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize the management discussion and analysis section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := root.cfg.ToAnalysisOptions()
			if err != nil {
				return err
			}
			pipeline := analysis.NewNarrativePipeline(opts, analysis.WithLogger(root.logger)).
				WithMaxSentences(sentences)

			path := args[0]
			ex, err := document.ExtractFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			result, err := pipeline.Run(analysis.InputFrom(ex, filepath.Base(path)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if !result.Success {
				return fmt.Errorf("%s: %s", result.Company, result.Message)
			}
			fmt.Fprintf(out, "%s: %s (pages %d-%d)\n\n%s\n", result.Company, result.SectionLabel, result.StartPage, result.EndPage, result.Summary)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sentences, "sentences", "n", 0, "number of summary sentences, overrides config")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
