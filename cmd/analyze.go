package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/artifact"
	"github.com/KaramelBytes/aerofit-cli/internal/charts"
	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
	"github.com/KaramelBytes/aerofit-cli/internal/metrics"
)

var (
	anaOutputPath  string
	anaOutDir      string
	anaFormat      string
	anaCharts      bool
	anaChartsOnly  []string
	anaMetricsFile string
	anaMultiplier  float64
	anaSampleRows  int
	anaCrossTabs   []string
	anaTopPairs    int
	anaLoad        loadFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Profile a purchase dataset and write the report",
	Long: `Analyze loads the dataset, computes per-product profiles, contingency and conditional
probability tables, correlations and IQR outliers, and renders a report.

Without --output or --out-dir the report is printed to stdout. With --out-dir a run directory
is created holding the report, the charts and a run.json manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dataPath(args)
		if err != nil {
			return err
		}
		opt, err := reportOptions(anaMultiplier, anaSampleRows, anaCrossTabs, anaTopPairs)
		if err != nil {
			return err
		}
		metricsFile := anaMetricsFile
		if metricsFile == "" {
			metricsFile = settings().MetricsFile
		}
		rec := metrics.New()

		start := time.Now()
		t, rep, err := analyzeFile(path, &anaLoad, opt)
		if err != nil {
			rec.Failed()
			if metricsFile != "" {
				if merr := rec.WriteFile(metricsFile); merr != nil {
					log.Warn("metrics not written", zap.Error(merr))
				}
			}
			return err
		}
		defer t.Release()
		rec.Observe(rep, time.Since(start))

		body, ext, err := renderReport(rep, anaFormat)
		if err != nil {
			return err
		}
		withCharts := anaCharts || settings().Charts
		if cmd.Flags().Changed("charts") {
			withCharts = anaCharts
		}
		chartOpt := charts.DefaultOptions()
		chartOpt.Only = anaChartsOnly

		out := cmd.OutOrStdout()
		var run *artifact.Run
		switch {
		case anaOutDir != "":
			run, err = writeRun(t, rep, path, anaOutDir, body, ext, withCharts, chartOpt)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote run %s to %s (%d artifacts)\n", run.ID, run.RootDir(), len(run.Artifacts))
		case anaOutputPath != "":
			if err := os.WriteFile(anaOutputPath, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
		default:
			if _, err := out.Write(body); err != nil {
				return err
			}
		}
		if withCharts && run == nil {
			paths, err := charts.RenderAll(t, rep, settings().FiguresDir, chartOpt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d charts to %s\n", len(paths), settings().FiguresDir)
		}

		if metricsFile != "" {
			if err := rec.WriteFile(metricsFile); err != nil {
				return err
			}
			if run != nil {
				if err := recordArtifact(run, metricsFile, artifact.KindMetrics, "Prometheus textfile metrics"); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

// reportOptions merges flag values over the configured defaults.
// A zero multiplier or negative sample count means "use config".
func reportOptions(multiplier float64, sampleRows int, crosstabs []string, topPairs int) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	s := settings()
	opt.IQRMultiplier = s.IQRMultiplier
	opt.SampleRows = s.SampleRows
	if multiplier != 0 {
		opt.IQRMultiplier = multiplier
	}
	if sampleRows >= 0 {
		opt.SampleRows = sampleRows
	}
	if topPairs >= 0 {
		opt.TopPairs = topPairs
	}
	if len(crosstabs) > 0 {
		opt.CrossTabs = nil
		for _, arg := range crosstabs {
			pair, err := parseCrossTab(arg)
			if err != nil {
				return opt, err
			}
			opt.CrossTabs = append(opt.CrossTabs, pair)
		}
	}
	return opt, nil
}

func parseCrossTab(s string) ([2]string, error) {
	a, b, ok := strings.Cut(s, ":")
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !ok || a == "" || b == "" {
		return [2]string{}, fmt.Errorf("invalid --crosstab %q (want ROW:COL, e.g. Product:Gender)", s)
	}
	return [2]string{a, b}, nil
}

// analyzeFile loads path and runs every analysis pass. The caller releases the table.
func analyzeFile(path string, lf *loadFlags, opt analysis.Options) (*dataset.Table, *analysis.Report, error) {
	t, err := loadTable(path, lf)
	if err != nil {
		return nil, nil, err
	}
	rep, err := analysis.Analyze(t, opt)
	if err != nil {
		t.Release()
		return nil, nil, err
	}
	log.Debug("analysis complete",
		zap.String("dataset", rep.Name),
		zap.Int("crosstabs", len(rep.CrossTabs)),
		zap.Int("outliers", rep.Outliers.TotalFlagged()))
	return t, rep, nil
}

func renderReport(rep *analysis.Report, format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		return []byte(rep.Markdown()), ".md", nil
	case "yaml", "yml":
		b, err := rep.YAML()
		if err != nil {
			return nil, "", fmt.Errorf("render yaml: %w", err)
		}
		return b, ".yaml", nil
	}
	return nil, "", fmt.Errorf("unsupported --format: %s (use markdown|yaml)", format)
}

// writeRun creates a run directory at dir holding the report, optional charts and run.json.
func writeRun(t *dataset.Table, rep *analysis.Report, source, dir string, body []byte, ext string, withCharts bool, chartOpt charts.Options) (*artifact.Run, error) {
	run := artifact.NewRun(source, dir)
	run.Rows = rep.Rows
	run.IQRMultiplier = rep.Outliers.Multiplier
	if _, err := run.WriteFile("report"+ext, body, artifact.KindReport, "Analysis report"); err != nil {
		return nil, err
	}
	if withCharts {
		paths, err := charts.RenderAll(t, rep, filepath.Join(dir, settings().FiguresDir), chartOpt)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			if err := run.AddArtifact(p, artifact.KindChart, strings.ReplaceAll(name, "_", " ")); err != nil {
				return nil, err
			}
		}
	}
	if err := run.Save(); err != nil {
		return nil, err
	}
	log.Info("run saved", zap.String("id", run.ID), zap.String("dir", dir))
	return run, nil
}

// recordArtifact adds an existing file to run and persists the manifest.
func recordArtifact(run *artifact.Run, path string, kind artifact.Kind, description string) error {
	if err := run.AddArtifact(path, kind, description); err != nil {
		return fmt.Errorf("record %s artifact: %w", kind, err)
	}
	if err := run.Save(); err != nil {
		return fmt.Errorf("save run manifest: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&anaOutDir, "out-dir", "", "create a run directory with report, charts and run.json")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "markdown", "report format: markdown|yaml")
	analyzeCmd.Flags().BoolVar(&anaCharts, "charts", false, "render PNG charts (config charts if omitted)")
	analyzeCmd.Flags().StringSliceVar(&anaChartsOnly, "only", nil, "render only these charts (see 'aerofit charts --list')")
	analyzeCmd.Flags().StringVar(&anaMetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	analyzeCmd.Flags().Float64Var(&anaMultiplier, "multiplier", 0, "IQR fence multiplier (config iqr_multiplier if omitted)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", -1, "number of leading records to include (config sample_rows if omitted)")
	analyzeCmd.Flags().StringArrayVar(&anaCrossTabs, "crosstab", nil, "contingency table ROW:COL (repeatable; default Product against every dimension)")
	analyzeCmd.Flags().IntVar(&anaTopPairs, "top-pairs", -1, "per-product correlation pairs to report (0 = all)")
	anaLoad.register(analyzeCmd)
}
