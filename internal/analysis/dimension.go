package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// Derived dimension names.
const (
	DimAgeBucket     = "AgeBucket"
	DimUsageCategory = "UsageCategory"
	DimIncomeBucket  = "IncomeBucket"
	DimMilesCategory = "MilesCategory"
)

// DimensionNames lists every name accepted by NewDimension.
var DimensionNames = []string{
	string(dataset.ColProduct), string(dataset.ColGender), string(dataset.ColMaritalStatus),
	string(dataset.ColFitness), string(dataset.ColEducation), string(dataset.ColUsage),
	DimAgeBucket, DimUsageCategory, DimIncomeBucket, DimMilesCategory,
}

var (
	ageBucketLabels = []string{"<25", "25-34", "35-44", "45-54", "55+"}
	usageLabels     = []string{"casual", "regular", "heavy"}
	tertileLabels   = []string{"low", "medium", "high"}
)

// Dimension is a categorical view of a table: an ordered category set and the
// category index of every record.
type Dimension struct {
	Name       string
	Categories []string
	// Assign[i] is the category index of record i.
	Assign []int
}

// Index returns the position of label in Categories, or -1.
func (d Dimension) Index(label string) int {
	for i, c := range d.Categories {
		if strings.EqualFold(c, label) {
			return i
		}
	}
	return -1
}

// Counts returns the number of records per category.
func (d Dimension) Counts() []int {
	out := make([]int, len(d.Categories))
	for _, a := range d.Assign {
		out[a]++
	}
	return out
}

// canonicalDimension resolves name case-insensitively, ignoring separators.
func canonicalDimension(name string) (string, bool) {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	}
	want := norm(name)
	for _, n := range DimensionNames {
		if norm(n) == want {
			return n, true
		}
	}
	return "", false
}

// NewDimension evaluates the named dimension over t.
func NewDimension(t *dataset.Table, name string) (Dimension, error) {
	canon, ok := canonicalDimension(name)
	if !ok {
		return Dimension{}, fmt.Errorf("unknown dimension %q (available: %s)", name, strings.Join(DimensionNames, ", "))
	}
	recs := t.Records()
	d := Dimension{Name: canon, Assign: make([]int, len(recs))}
	switch canon {
	case string(dataset.ColProduct):
		d.Categories = labelsOf(dataset.Products)
		for i, r := range recs {
			d.Assign[i] = d.Index(string(r.Product))
		}
	case string(dataset.ColGender):
		d.Categories = labelsOf(dataset.Genders)
		for i, r := range recs {
			d.Assign[i] = d.Index(string(r.Gender))
		}
	case string(dataset.ColMaritalStatus):
		d.Categories = labelsOf(dataset.MaritalStatuses)
		for i, r := range recs {
			d.Assign[i] = d.Index(string(r.MaritalStatus))
		}
	case string(dataset.ColFitness):
		d.Categories = []string{"1", "2", "3", "4", "5"}
		for i, r := range recs {
			d.Assign[i] = r.Fitness - 1
		}
	case string(dataset.ColEducation), string(dataset.ColUsage):
		d = observedDimension(canon, recs, dataset.Column(canon))
	case DimAgeBucket:
		d.Categories = ageBucketLabels
		for i, r := range recs {
			d.Assign[i] = ageBucket(r.Age)
		}
	case DimUsageCategory:
		d.Categories = usageLabels
		for i, r := range recs {
			d.Assign[i] = usageCategory(float64(r.Usage))
		}
	case DimIncomeBucket:
		d.Categories = tertileLabels
		d.Assign = incomeBuckets(values(recs, dataset.ColIncome))
	case DimMilesCategory:
		d.Categories = tertileLabels
		d.Assign = milesCategories(values(recs, dataset.ColMiles))
	}
	return d, nil
}

func labelsOf[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func values(recs []dataset.PurchaseRecord, c dataset.Column) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.Value(c)
	}
	return out
}

// observedDimension uses the distinct integer values present, ascending.
func observedDimension(name string, recs []dataset.PurchaseRecord, c dataset.Column) Dimension {
	seen := map[int]bool{}
	for _, r := range recs {
		seen[int(r.Value(c))] = true
	}
	vals := make([]int, 0, len(seen))
	for v := range seen {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	pos := make(map[int]int, len(vals))
	d := Dimension{Name: name, Categories: make([]string, len(vals)), Assign: make([]int, len(recs))}
	for i, v := range vals {
		d.Categories[i] = strconv.Itoa(v)
		pos[v] = i
	}
	for i, r := range recs {
		d.Assign[i] = pos[int(r.Value(c))]
	}
	return d
}

// ageBucket uses right-closed bins (0,24], (24,34], (34,44], (44,54], (54,inf).
func ageBucket(age int) int {
	switch {
	case age <= 24:
		return 0
	case age <= 34:
		return 1
	case age <= 44:
		return 2
	case age <= 54:
		return 3
	}
	return 4
}

// usageCategory: casual below 3, regular 3 to 5, heavy above 5.
func usageCategory(u float64) int {
	switch {
	case u < 3:
		return 0
	case u <= 5:
		return 1
	}
	return 2
}

// incomeBuckets splits at the tertiles of the positive incomes; zero incomes never
// move the edges and land in the lowest bucket. When two edges coincide the fixed
// 40000 / 70000 cut is used instead.
func incomeBuckets(xs []float64) []int {
	positive := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > 0 {
			positive = append(positive, x)
		}
	}
	if edges, ok := tertileEdges(positive); ok {
		return assignRightClosed(xs, edges[1], edges[2])
	}
	return assignRightClosed(xs, 40000, 70000)
}

// milesCategories uses tertiles when at least three distinct values exist,
// otherwise three equal-width bins over the observed range.
func milesCategories(xs []float64) []int {
	if distinct(xs) >= 3 {
		if edges, ok := tertileEdges(xs); ok {
			return assignRightClosed(xs, edges[1], edges[2])
		}
	}
	return equalWidth(xs)
}

func tertileEdges(xs []float64) ([4]float64, bool) {
	var e [4]float64
	if len(xs) == 0 {
		return e, false
	}
	sorted := sortedCopy(xs)
	for i := range e {
		e[i] = quantile(sorted, float64(i)/3)
	}
	return e, e[0] < e[1] && e[1] < e[2] && e[2] < e[3]
}

func assignRightClosed(xs []float64, lo, hi float64) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		switch {
		case x <= lo:
			out[i] = 0
		case x <= hi:
			out[i] = 1
		default:
			out[i] = 2
		}
	}
	return out
}

func equalWidth(xs []float64) []int {
	out := make([]int, len(xs))
	if len(xs) == 0 {
		return out
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	width := (hi - lo) / 3
	for i, x := range xs {
		if width == 0 {
			out[i] = 1
			continue
		}
		b := int(math.Ceil((x-lo)/width)) - 1
		if b < 0 {
			b = 0
		}
		if b > 2 {
			b = 2
		}
		out[i] = b
	}
	return out
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
