package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func sampleReport(t *testing.T) *analysis.Report {
	t.Helper()
	recs := []dataset.PurchaseRecord{
		{Product: dataset.KP281, Age: 20, Gender: dataset.Male, Education: 14, MaritalStatus: dataset.Single, Usage: 3, Fitness: 3, Income: 30000, Miles: 80},
		{Product: dataset.KP281, Age: 21, Gender: dataset.Male, Education: 14, MaritalStatus: dataset.Single, Usage: 3, Fitness: 3, Income: 31000, Miles: 82},
		{Product: dataset.KP281, Age: 22, Gender: dataset.Male, Education: 14, MaritalStatus: dataset.Single, Usage: 3, Fitness: 3, Income: 32000, Miles: 84},
		{Product: dataset.KP281, Age: 23, Gender: dataset.Male, Education: 14, MaritalStatus: dataset.Single, Usage: 3, Fitness: 3, Income: 33000, Miles: 900},
		{Product: dataset.KP781, Age: 30, Gender: dataset.Female, Education: 18, MaritalStatus: dataset.Partnered, Usage: 5, Fitness: 5, Income: 90000, Miles: 200},
	}
	tbl, err := dataset.NewTable("metrics.csv", recs)
	require.NoError(t, err)
	t.Cleanup(tbl.Release)
	rep, err := analysis.Analyze(tbl, analysis.DefaultOptions())
	require.NoError(t, err)
	return rep
}

func TestObserve(t *testing.T) {
	r := New()
	r.Observe(sampleReport(t), 20*time.Millisecond)
	r.Failed()

	assert.Equal(t, 4.0, testutil.ToFloat64(r.records.WithLabelValues("metrics.csv", "KP281")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.records.WithLabelValues("metrics.csv", "KP781")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outliers.WithLabelValues("metrics.csv", "KP281", "Miles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.Observe(sampleReport(t), time.Second)
	path := filepath.Join(t.TempDir(), "aerofit.prom")
	require.NoError(t, r.WriteFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	for _, want := range []string{
		"# TYPE aerofit_records gauge",
		`aerofit_records{dataset="metrics.csv",product="KP281"} 4`,
		"aerofit_analysis_duration_seconds_count 1",
		"aerofit_last_run_timestamp_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics file, got:\n%s", want, out)
		}
	}
}
