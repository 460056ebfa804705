package analysis

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// NumericSummary holds the descriptive statistics of one numeric column.
// Std is the sample standard deviation (n-1) and is NaN below two values.
type NumericSummary struct {
	Column dataset.Column `yaml:"column"`
	Count  int            `yaml:"count"`
	Mean   float64        `yaml:"mean"`
	Std    float64        `yaml:"std"`
	Min    float64        `yaml:"min"`
	P25    float64        `yaml:"p25"`
	P50    float64        `yaml:"p50"`
	P75    float64        `yaml:"p75"`
	Max    float64        `yaml:"max"`
}

// Describe summarizes xs. An empty input yields NaN statistics.
func Describe(col dataset.Column, xs []float64) NumericSummary {
	s := NumericSummary{Column: col, Count: len(xs)}
	if len(xs) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sample := stats.Sample{Xs: xs}
	s.Mean = sample.Mean()
	s.Std = math.NaN()
	if len(xs) > 1 {
		s.Std = sample.StdDev()
	}
	s.Min, s.Max = sample.Bounds()

	sorted := sortedCopy(xs)
	s.P25 = quantile(sorted, 0.25)
	s.P50 = quantile(sorted, 0.50)
	s.P75 = quantile(sorted, 0.75)
	return s
}

// Quantile returns the q-th quantile of xs using linear interpolation between
// order statistics at position q*(n-1). NaN for empty input.
func Quantile(xs []float64, q float64) float64 {
	return quantile(sortedCopy(xs), q)
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson returns the sample correlation of x and y, NaN when either has zero variance.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return math.NaN()
	}
	mx, my := stats.Mean(x), stats.Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	// clamp rounding drift
	return math.Max(-1, math.Min(1, r))
}
