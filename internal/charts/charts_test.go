package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	var recs []dataset.PurchaseRecord
	for i := 0; i < 18; i++ {
		recs = append(recs, dataset.PurchaseRecord{
			Product:       dataset.Products[i%3],
			Age:           20 + i,
			Gender:        dataset.Genders[i%2],
			Education:     14 + i%4,
			MaritalStatus: dataset.MaritalStatuses[i%2],
			Usage:         2 + i%5,
			Fitness:       1 + i%5,
			Income:        30000 + float64(i)*2500,
			Miles:         60 + float64(i*i),
		})
	}
	tbl, err := dataset.NewTable("charts", recs)
	require.NoError(t, err)
	t.Cleanup(tbl.Release)
	return tbl
}

func TestRenderAll(t *testing.T) {
	tbl := sampleTable(t)
	rep, err := analysis.Analyze(tbl, analysis.DefaultOptions())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "figures")
	paths, err := RenderAll(tbl, rep, dir, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, paths, len(Names()))

	pngMagic := []byte("\x89PNG")
	for _, p := range paths {
		b, err := os.ReadFile(p)
		require.NoError(t, err, p)
		assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", p)
	}
}

func TestRenderSelected(t *testing.T) {
	tbl := sampleTable(t)
	rep, err := analysis.Analyze(tbl, analysis.DefaultOptions())
	require.NoError(t, err)

	opt := DefaultOptions()
	opt.Only = []string{"Correlation_Heatmap"}
	paths, err := RenderAll(tbl, rep, t.TempDir(), opt)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "correlation_heatmap.png", filepath.Base(paths[0]))

	opt.Only = []string{"pie"}
	_, err = RenderAll(tbl, rep, t.TempDir(), opt)
	assert.ErrorContains(t, err, "unknown chart")
}
