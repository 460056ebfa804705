package analysis

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []dataset.Column `yaml:"columns"`
	Values  [][]float64      `yaml:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A dataset.Column `yaml:"a"`
	B dataset.Column `yaml:"b"`
	R float64        `yaml:"r"`
}

// GroupCorrelation lists the strongest pairs within one product.
type GroupCorrelation struct {
	Product dataset.Product `yaml:"product"`
	Pairs   []PairCorr      `yaml:"pairs"`
}

// Correlations computes the Pearson matrix over the numeric columns of t.
// The diagonal is exactly 1; pairs involving a constant column are NaN.
func Correlations(t *dataset.Table) (*CorrMatrix, error) {
	cols, err := numericColumns(t)
	if err != nil {
		return nil, err
	}
	all := roaring.New()
	all.AddRange(0, uint64(t.Len()))
	return correlate(cols, all), nil
}

// GroupCorrelations returns the top pairs by |r| per non-empty product.
func GroupCorrelations(t *dataset.Table, limit int) ([]GroupCorrelation, error) {
	cols, err := numericColumns(t)
	if err != nil {
		return nil, err
	}
	var out []GroupCorrelation
	for _, part := range ByProduct(t) {
		if part.IDs.IsEmpty() {
			continue
		}
		m := correlate(cols, part.IDs)
		out = append(out, GroupCorrelation{Product: part.Product, Pairs: m.TopPairs(limit)})
	}
	return out, nil
}

func numericColumns(t *dataset.Table) (map[dataset.Column][]float64, error) {
	cols := make(map[dataset.Column][]float64, len(dataset.NumericColumns))
	for _, c := range dataset.NumericColumns {
		vals, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		cols[c] = vals
	}
	return cols, nil
}

func correlate(cols map[dataset.Column][]float64, ids *roaring.Bitmap) *CorrMatrix {
	n := len(dataset.NumericColumns)
	m := &CorrMatrix{Columns: append([]dataset.Column(nil), dataset.NumericColumns...), Values: make([][]float64, n)}
	sub := make([][]float64, n)
	for i, c := range dataset.NumericColumns {
		sub[i] = pick(cols[c], ids)
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m.Values[i][i] = 1
		for j := i + 1; j < n; j++ {
			r := pearson(sub[i], sub[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// At returns the correlation of a and b, NaN if either is absent.
func (m *CorrMatrix) At(a, b dataset.Column) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// TopPairs lists off-diagonal pairs by descending |r|, skipping NaN. limit <= 0 means all.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsNaN(m.Values[i][j]) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
