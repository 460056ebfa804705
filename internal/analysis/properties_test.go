package analysis

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func drawTable(t *rapid.T) *dataset.Table {
	recs := rapid.SliceOfN(recordGen(), 1, 60).Draw(t, "records")
	tbl, err := dataset.NewTable("rapid", recs)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return tbl
}

func TestGroupCountsSumToTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := drawTable(t)
		defer tbl.Release()
		p, err := BuildProfile(tbl)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		sum := 0
		for _, g := range p.Groups {
			sum += g.Count
		}
		if sum != p.Count {
			t.Fatalf("group counts sum to %d, want %d", sum, p.Count)
		}
	})
}

func TestCategoricalProportionsSumToOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := drawTable(t)
		defer tbl.Release()
		p, err := BuildProfile(tbl)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		check := func(cs []CategoricalSummary) {
			for _, c := range cs {
				total := 0.0
				for _, f := range c.Frequencies {
					total += f.Proportion
				}
				if math.Abs(total-1) > 1e-9 {
					t.Fatalf("%s proportions sum to %v", c.Column, total)
				}
			}
		}
		check(p.Categorical)
		for _, g := range p.Groups {
			check(g.Categorical)
		}
	})
}

func TestCorrelationMatrixSymmetricUnitDiagonal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := drawTable(t)
		defer tbl.Release()
		m, err := Correlations(tbl)
		if err != nil {
			t.Fatalf("correlations: %v", err)
		}
		for i := range m.Columns {
			if m.Values[i][i] != 1 {
				t.Fatalf("diagonal %s = %v", m.Columns[i], m.Values[i][i])
			}
			for j := range m.Columns {
				a, b := m.Values[i][j], m.Values[j][i]
				if !(a == b || math.IsNaN(a) && math.IsNaN(b)) {
					t.Fatalf("asymmetric at %d,%d: %v vs %v", i, j, a, b)
				}
				if !math.IsNaN(a) && math.Abs(a) > 1 {
					t.Fatalf("|r| > 1 at %d,%d: %v", i, j, a)
				}
			}
		}
	})
}

func TestOutlierFlaggingIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := drawTable(t)
		defer tbl.Release()
		k := rapid.Float64Range(0.5, 4).Draw(t, "k")
		a, err := DetectOutliers(tbl, k)
		if err != nil {
			t.Fatalf("outliers: %v", err)
		}
		b, err := DetectOutliers(tbl, k)
		if err != nil {
			t.Fatalf("outliers: %v", err)
		}
		if !a.Flagged().Equals(b.Flagged()) {
			t.Fatalf("flagged sets differ between runs")
		}
		for _, s := range a.Sets {
			it := s.Flagged.Iterator()
			for it.HasNext() {
				r := tbl.Record(int(it.Next()))
				if r.Product != s.Product {
					t.Fatalf("record %d flagged under %s but bought %s", r.ID, s.Product, r.Product)
				}
				v := r.Value(s.Column)
				if v >= s.Lower && v <= s.Upper {
					t.Fatalf("record %d flagged inside fences", r.ID)
				}
			}
		}
	})
}

func TestCrossTabMarginsMatchTotals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := drawTable(t)
		defer tbl.Release()
		col := rapid.SampledFrom(DimensionNames).Draw(t, "dimension")
		ct, err := CrossTab(tbl, "Product", col)
		if err != nil {
			t.Fatalf("crosstab: %v", err)
		}
		rows, cols := 0, 0
		for _, n := range ct.RowTotals {
			rows += n
		}
		for _, n := range ct.ColTotals {
			cols += n
		}
		if rows != tbl.Len() || cols != tbl.Len() || ct.Total != tbl.Len() {
			t.Fatalf("margins %d/%d/%d, want %d", rows, cols, ct.Total, tbl.Len())
		}
	})
}
