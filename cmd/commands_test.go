package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/artifact"
)

func TestAnalyzeBatchCollisionSuffixAndNoSamples(t *testing.T) {
	home := isolate(t)
	// same basename in two directories
	writeFixture(t, filepath.Join(home, "d1"), "aerofit.csv", fixtureCSV)
	writeFixture(t, filepath.Join(home, "d2"), "aerofit.csv", fixtureCSV)
	outDir := filepath.Join(home, "reports")
	metricsFile := filepath.Join(home, "batch.prom")

	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "aerofit.csv"),
		"--out-dir", outDir, "--sample-rows", "0", "--metrics-file", metricsFile)
	assert.Contains(t, out, "[1/2] Processing aerofit.csv...")
	assert.Contains(t, out, "[2/2] Processing aerofit.csv...")
	assert.Contains(t, out, "⚠ Detected existing run, writing to aerofit__2")

	for _, dir := range []string{"aerofit", "aerofit__2"} {
		run, err := artifact.LoadRun(filepath.Join(outDir, dir))
		require.NoError(t, err, dir)
		assert.Equal(t, 13, run.Rows)
		body, err := os.ReadFile(filepath.Join(outDir, dir, "report.md"))
		require.NoError(t, err)
		assert.NotContains(t, string(body), "[HEAD AND SAMPLE ROWS]")
	}

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `aerofit_analyses_total{result="ok"} 2`)
}

func TestAnalyzeBatchQuietAndNoMatch(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	out := runCmd(t, "analyze-batch", data, data, "--out-dir", filepath.Join(home, "out"), "--quiet", "--format", "yaml")
	assert.Empty(t, out)
	_, err := os.Stat(filepath.Join(home, "out", "aerofit", "report.yaml"))
	assert.NoError(t, err)
	// duplicates are analyzed once
	_, err = os.Stat(filepath.Join(home, "out", "aerofit__2"))
	assert.True(t, os.IsNotExist(err))

	_, err = execute(t, "analyze-batch", filepath.Join(home, "nothing-*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}

func TestAnalyzeBatchFlushesMetricsOnRunFailure(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)
	metricsFile := filepath.Join(home, "batch.prom")

	_, err := execute(t, "analyze-batch", data, "--out-dir", filepath.Join(home, "out"),
		"--format", "json", "--metrics-file", metricsFile, "--quiet")
	assert.ErrorContains(t, err, "unsupported --format")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `aerofit_analyses_total{result="error"} 1`)
	assert.NotContains(t, string(prom), `result="ok"`)
}

func TestRecordArtifactReportsErrors(t *testing.T) {
	home := isolate(t)
	metricsFile := writeFixture(t, home, "run.prom", "aerofit_records 1\n")

	// no run directory to save into
	err := recordArtifact(artifact.NewRun("aerofit.csv", ""), metricsFile, artifact.KindMetrics, "metrics")
	assert.ErrorContains(t, err, "save run manifest")

	run := artifact.NewRun("aerofit.csv", filepath.Join(home, "run"))
	err = recordArtifact(run, filepath.Join(home, "missing.prom"), artifact.KindMetrics, "metrics")
	assert.ErrorContains(t, err, "record metrics artifact")

	require.NoError(t, recordArtifact(run, metricsFile, artifact.KindMetrics, "metrics"))
	loaded, err := artifact.LoadRun(filepath.Join(home, "run"))
	require.NoError(t, err)
	assert.Len(t, loaded.Artifacts, 1)
}

func TestCrosstabCommand(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	out := runCmd(t, "crosstab", data, "--rows", "product", "--cols", "gender")
	assert.Contains(t, out, "[CONTINGENCY: Product x Gender]")
	assert.Contains(t, out, "| KP281 | 4 | 3 | 7 |")
	assert.Contains(t, out, "| Total | 7 | 6 | 13 |")

	out = runCmd(t, "crosstab", data, "--normalize", "row")
	assert.Contains(t, out, "| KP281 | 0.571 | 0.429 |")

	_, err := execute(t, "crosstab", data, "--normalize", "diagonal")
	assert.ErrorContains(t, err, "unknown normalization")
}

func TestProbCommand(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	out := runCmd(t, "prob", data, "--event", "Product=KP781", "--given", "Gender=female")
	assert.Equal(t, "P(Product=KP781 | Gender=Female) = 0.1667 (1/6)\n", out)

	out = runCmd(t, "prob", data, "--event", "AgeBucket=<25")
	assert.Equal(t, "P(AgeBucket=<25) = 0.8462 (11/13)\n", out)

	_, err := execute(t, "prob", data, "--event", "Product=KP281", "--given", "AgeBucket=55+")
	assert.ErrorIs(t, err, analysis.ErrDivisionUndefined)

	_, err = execute(t, "prob", data, "--event", "Product=KP999", "--given", "Gender=Male")
	assert.ErrorIs(t, err, analysis.ErrUnknownCategory)

	_, err = execute(t, "prob", data, "--event", "Product")
	assert.ErrorContains(t, err, "want DIMENSION=VALUE")
}

func TestOutliersCommand(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	out := runCmd(t, "outliers", data, "--product", "kp281", "--column", "income")
	assert.Contains(t, out, "[OUTLIERS: 1.5 x IQR]")
	assert.Contains(t, out, "- KP281 Income: ids 6")
	assert.Equal(t, 1, strings.Count(out, "| KP281 |"))

	_, err := execute(t, "outliers", data, "--column", "Shoe")
	assert.ErrorContains(t, err, "no outlier sets match")

	_, err = execute(t, "outliers", data, "--multiplier", "-1")
	assert.ErrorContains(t, err, "must be a positive number")
}

func TestChartsCommand(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	out := runCmd(t, "charts", "--list")
	assert.Contains(t, out, "correlation_heatmap")

	dir := filepath.Join(home, "figs")
	out = runCmd(t, "charts", data, "--dir", dir, "--only", "usage_hist,income_by_product")
	assert.Contains(t, out, "✓ Wrote "+filepath.Join(dir, "income_by_product.png"))
	for _, name := range []string{"usage_hist.png", "income_by_product.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	_, err := execute(t, "charts", data, "--dir", dir, "--only", "pie")
	assert.ErrorContains(t, err, "unknown chart")
}

func TestConfigSetAndShow(t *testing.T) {
	isolate(t)

	runCmd(t, "config", "set", "iqr_multiplier", "2")
	runCmd(t, "config", "set", "decimal_separator", "comma")
	runCmd(t, "config", "set", "charts", "true")
	out := runCmd(t, "config", "show")
	assert.Contains(t, out, "iqr_multiplier: 2\n")
	assert.Contains(t, out, "decimal_separator: ,\n")
	assert.Contains(t, out, "charts: true\n")

	_, err := execute(t, "config", "set", "iqr_multiplier", "0")
	assert.Error(t, err)
	_, err = execute(t, "config", "set", "log_level", "loud")
	assert.ErrorContains(t, err, "unknown log level")
	_, err = execute(t, "config", "set", "api_key", "x")
	assert.ErrorContains(t, err, "unknown key")
}

func TestConfiguredMultiplierReachesOutliers(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, "aerofit.csv", fixtureCSV)

	runCmd(t, "config", "set", "iqr_multiplier", "2.5")
	out := runCmd(t, "outliers", data, "--product", "KP281", "--column", "Income")
	assert.Contains(t, out, "[OUTLIERS: 2.5 x IQR]")
}
