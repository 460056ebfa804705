package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func TestDerivedColumns(t *testing.T) {
	recs := []dataset.PurchaseRecord{
		rec(dataset.KP281, dataset.Male, 20, 0),
		rec(dataset.KP281, dataset.Female, 30, 30000),
		rec(dataset.KP481, dataset.Male, 40, 50000),
		rec(dataset.KP781, dataset.Female, 60, 90000),
	}
	recs[3].Usage = 6
	tbl := mustTable(t, recs)

	cols, err := DerivedColumns(tbl)
	require.NoError(t, err)
	require.Len(t, cols, len(DerivedDimensions))

	byName := map[string][]string{}
	for _, c := range cols {
		assert.Len(t, c.Values, tbl.Len(), c.Name)
		byName[c.Name] = c.Values
	}
	assert.Equal(t, []string{"<25", "25-34", "35-44", "55+"}, byName[DimAgeBucket])
	assert.Equal(t, []string{"regular", "regular", "regular", "heavy"}, byName[DimUsageCategory])
	assert.Equal(t, []string{"low", "low", "medium", "high"}, byName[DimIncomeBucket])
	// constant miles fall into the middle bin
	assert.Equal(t, []string{"medium", "medium", "medium", "medium"}, byName[DimMilesCategory])
}
