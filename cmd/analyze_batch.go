package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/aerofit-cli/internal/charts"
	"github.com/KaramelBytes/aerofit-cli/internal/metrics"
	"github.com/KaramelBytes/aerofit-cli/internal/utils"
)

var (
	abOutDir      string
	abFormat      string
	abCharts      bool
	abMetricsFile string
	abMultiplier  float64
	abSampleRows  int
	abCrossTabs   []string
	abTopPairs    int
	abQuiet       bool
	abLoad        loadFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX/Arrow files, one run directory per dataset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := reportOptions(abMultiplier, abSampleRows, abCrossTabs, abTopPairs)
		if err != nil {
			return err
		}
		outDir := abOutDir
		if outDir == "" {
			outDir = settings().OutputDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		metricsFile := abMetricsFile
		if metricsFile == "" {
			metricsFile = settings().MetricsFile
		}
		withCharts := settings().Charts
		if cmd.Flags().Changed("charts") {
			withCharts = abCharts
		}

		rec := metrics.New()
		flush := func() error {
			if metricsFile == "" {
				return nil
			}
			return rec.WriteFile(metricsFile)
		}

		// fail counts the dataset as failed and flushes the metrics gathered so far
		fail := func(err error) error {
			rec.Failed()
			if ferr := flush(); ferr != nil {
				log.Warn("metrics not written", zap.Error(ferr))
			}
			return err
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			start := time.Now()
			t, rep, err := analyzeFile(path, &abLoad, opt)
			if err != nil {
				return fail(fmt.Errorf("%s: %w", path, err))
			}
			elapsed := time.Since(start)

			body, ext, err := renderReport(rep, abFormat)
			if err != nil {
				t.Release()
				return fail(err)
			}
			want := filepath.Join(outDir, runDirName(path, abLoad.sheetName))
			dir := utils.FreePath(want)
			if dir != want && !abQuiet {
				fmt.Fprintf(out, "⚠ Detected existing run, writing to %s to avoid overwrite.\n", filepath.Base(dir))
			}
			run, err := writeRun(t, rep, path, dir, body, ext, withCharts, charts.DefaultOptions())
			t.Release()
			if err != nil {
				return fail(fmt.Errorf("%s: %w", path, err))
			}
			rec.Observe(rep, elapsed)
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s (%d rows, %d outliers flagged)\n", run.RootDir(), rep.Rows, rep.Outliers.TotalFlagged())
			}
		}
		if err := flush(); err != nil {
			return err
		}
		if metricsFile != "" && !abQuiet {
			fmt.Fprintf(out, "✓ Wrote metrics to %s\n", metricsFile)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops duplicates and sorts.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func runDirName(path, sheet string) string {
	base := filepath.Base(path)
	name := utils.Slug(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "dataset"
	}
	if sheet != "" {
		s := utils.Slug(sheet)
		if s == "" {
			s = "sheet"
		}
		name += "__sheet-" + s
	}
	return name
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "parent directory for run directories (config output_dir if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "markdown", "report format: markdown|yaml")
	analyzeBatchCmd.Flags().BoolVar(&abCharts, "charts", false, "render PNG charts into each run (config charts if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abMetricsFile, "metrics-file", "", "write Prometheus textfile metrics for the whole batch")
	analyzeBatchCmd.Flags().Float64Var(&abMultiplier, "multiplier", 0, "IQR fence multiplier (config iqr_multiplier if omitted)")
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", -1, "number of leading records per report (config sample_rows if omitted)")
	analyzeBatchCmd.Flags().StringArrayVar(&abCrossTabs, "crosstab", nil, "contingency table ROW:COL (repeatable)")
	analyzeBatchCmd.Flags().IntVar(&abTopPairs, "top-pairs", -1, "per-product correlation pairs to report (0 = all)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	abLoad.register(analyzeBatchCmd)
}
