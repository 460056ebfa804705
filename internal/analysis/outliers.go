package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// DefaultIQRMultiplier is the conventional Tukey fence width.
const DefaultIQRMultiplier = 1.5

// extremeMultiplier marks the outer fences.
const extremeMultiplier = 3.0

// OutlierSet is the IQR test of one numeric column within one product.
// Flagged holds the ids of records strictly outside [Lower, Upper]; Extreme those
// outside the outer fences at max(3, k)*IQR, so Extreme is always within Flagged.
type OutlierSet struct {
	Product dataset.Product
	Column  dataset.Column
	Count   int
	Q1      float64
	Q3      float64
	IQR     float64
	Lower   float64
	Upper   float64
	Flagged *roaring.Bitmap
	Extreme *roaring.Bitmap
}

// IDs returns the flagged record ids in ascending order.
func (s OutlierSet) IDs() []int {
	return bitmapInts(s.Flagged)
}

type outlierSetYAML struct {
	Product dataset.Product `yaml:"product"`
	Column  dataset.Column  `yaml:"column"`
	Count   int             `yaml:"count"`
	Q1      float64         `yaml:"q1"`
	Q3      float64         `yaml:"q3"`
	IQR     float64         `yaml:"iqr"`
	Lower   float64         `yaml:"lower_fence"`
	Upper   float64         `yaml:"upper_fence"`
	Flagged []int           `yaml:"flagged_ids"`
	Extreme []int           `yaml:"extreme_ids"`
}

// MarshalYAML renders the bitmaps as id lists.
func (s OutlierSet) MarshalYAML() (interface{}, error) {
	return outlierSetYAML{
		Product: s.Product, Column: s.Column, Count: s.Count,
		Q1: s.Q1, Q3: s.Q3, IQR: s.IQR, Lower: s.Lower, Upper: s.Upper,
		Flagged: bitmapInts(s.Flagged), Extreme: bitmapInts(s.Extreme),
	}, nil
}

// OutlierReport holds one set per non-empty product and numeric column.
type OutlierReport struct {
	Multiplier float64      `yaml:"multiplier"`
	Sets       []OutlierSet `yaml:"sets"`
}

// Set returns the result for product and column.
func (r *OutlierReport) Set(product dataset.Product, col dataset.Column) (OutlierSet, bool) {
	for _, s := range r.Sets {
		if s.Product == product && s.Column == col {
			return s, true
		}
	}
	return OutlierSet{}, false
}

// Flagged returns the union of flagged ids across all sets.
func (r *OutlierReport) Flagged() *roaring.Bitmap {
	out := roaring.New()
	for _, s := range r.Sets {
		out.Or(s.Flagged)
	}
	return out
}

// Filter returns the sets matching product and column, compared case-insensitively.
// Empty arguments match everything.
func (r *OutlierReport) Filter(product, column string) []OutlierSet {
	var out []OutlierSet
	for _, s := range r.Sets {
		if product != "" && !strings.EqualFold(string(s.Product), product) {
			continue
		}
		if column != "" && !strings.EqualFold(string(s.Column), column) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// TotalFlagged is the number of (record, column) flags.
func (r *OutlierReport) TotalFlagged() int {
	n := 0
	for _, s := range r.Sets {
		n += int(s.Flagged.GetCardinality())
	}
	return n
}

// DetectOutliers applies the IQR rule per product and numeric column. Records are
// never modified or removed.
func DetectOutliers(t *dataset.Table, multiplier float64) (*OutlierReport, error) {
	if !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("iqr multiplier must be a positive number, got %v", multiplier)
	}
	cols, err := numericColumns(t)
	if err != nil {
		return nil, err
	}
	rep := &OutlierReport{Multiplier: multiplier}
	for _, part := range ByProduct(t) {
		if part.IDs.IsEmpty() {
			continue
		}
		ids := part.IDs.ToArray()
		for _, c := range dataset.NumericColumns {
			s := flagIQR(ids, pick(cols[c], part.IDs), multiplier)
			s.Product, s.Column = part.Product, c
			rep.Sets = append(rep.Sets, s)
		}
	}
	return rep, nil
}

// IQRFences returns the quartiles of xs and the fences at k*IQR.
func IQRFences(xs []float64, k float64) (q1, q3, lower, upper float64) {
	sorted := sortedCopy(xs)
	q1 = quantile(sorted, 0.25)
	q3 = quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1, q3, q1 - k*iqr, q3 + k*iqr
}

// flagIQR tests vals, where vals[i] belongs to record ids[i].
func flagIQR(ids []uint32, vals []float64, k float64) OutlierSet {
	s := OutlierSet{Count: len(vals), Flagged: roaring.New(), Extreme: roaring.New()}
	s.Q1, s.Q3, s.Lower, s.Upper = IQRFences(vals, k)
	s.IQR = s.Q3 - s.Q1
	outer := math.Max(k, extremeMultiplier)
	lof, uof := s.Q1-outer*s.IQR, s.Q3+outer*s.IQR
	for i, v := range vals {
		if v < s.Lower || v > s.Upper {
			s.Flagged.Add(ids[i])
		}
		if v < lof || v > uof {
			s.Extreme.Add(ids[i])
		}
	}
	return s
}

func bitmapInts(b *roaring.Bitmap) []int {
	if b == nil {
		return nil
	}
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
