package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// fileOutcome 单个文件的分析结果
type fileOutcome struct {
	File   string                    `json:"file"`
	Result *analysis.FinancialResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		parallel int
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Extract financial statements and headline KPIs from documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "md" {
				return fmt.Errorf("unsupported format %q, use json or md", format)
			}
			opts, err := root.cfg.ToAnalysisOptions()
			if err != nil {
				return err
			}
			pipeline := analysis.NewFinancialPipeline(opts, analysis.WithLogger(root.logger))

			outcomes := analyzeFiles(cmd.Context(), pipeline, args, parallel, root.logger)

			if err := writeOutcomes(cmd.OutOrStdout(), outcomes, format, output); err != nil {
				return err
			}

			failed := 0
			for _, o := range outcomes {
				if o.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "j", 4, "number of files analyzed concurrently")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json/md)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for per-file output, stdout when empty")
	return cmd
}

// analyzeFiles 并发分析多个文件，结果顺序与输入一致
func analyzeFiles(ctx context.Context, pipeline *analysis.FinancialPipeline, paths []string, parallel int, logger *logrus.Logger) []fileOutcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}

	outcomes := make([]fileOutcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, path := range paths {
		g.Go(func() error {
			outcomes[i].File = path
			result, err := analyzeFile(ctx, pipeline, path)
			if err != nil {
				logger.WithError(err).WithField("file", path).Error("Analysis failed")
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func analyzeFile(ctx context.Context, pipeline *analysis.FinancialPipeline, path string) (*analysis.FinancialResult, error) {
	ex, err := document.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(analysis.InputFrom(ex, filepath.Base(path)))
}

// writeOutcomes 输出分析结果，output非空时每个文件写一个结果文件
func writeOutcomes(w io.Writer, outcomes []fileOutcome, format, output string) error {
	if output == "" {
		if format == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(outcomes)
		}
		for _, o := range outcomes {
			if o.Result == nil {
				fmt.Fprintf(w, "# %s\n\n_Analysis failed: %s_\n\n", o.File, o.Error)
				continue
			}
			if _, err := w.Write(report.RenderMarkdown(o.Result, nil)); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		return nil
	}

	if err := os.MkdirAll(output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		var data []byte
		var err error
		if format == "json" {
			data, err = json.MarshalIndent(o.Result, "", "  ")
		} else {
			data = report.RenderMarkdown(o.Result, nil)
		}
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(filepath.Base(o.File), filepath.Ext(o.File))
		target := filepath.Join(output, base+"."+format)
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintln(w, target)
	}
	return nil
}
