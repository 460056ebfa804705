package analysis

import (
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// Frequency is the count and share of one category.
type Frequency struct {
	Value      string  `yaml:"value"`
	Count      int     `yaml:"count"`
	Proportion float64 `yaml:"proportion"`
}

// CategoricalSummary covers the full category set of a column, zero counts included.
type CategoricalSummary struct {
	Column      dataset.Column `yaml:"column"`
	Count       int            `yaml:"count"`
	Mode        string         `yaml:"mode"`
	Frequencies []Frequency    `yaml:"frequencies"`
}

// GroupProfile is the profile of the records of one product.
type GroupProfile struct {
	Product     dataset.Product      `yaml:"product"`
	Count       int                  `yaml:"count"`
	Numeric     []NumericSummary     `yaml:"numeric"`
	Categorical []CategoricalSummary `yaml:"categorical"`
}

// Profile holds descriptive statistics overall and per non-empty product group.
type Profile struct {
	Count       int                  `yaml:"count"`
	Numeric     []NumericSummary     `yaml:"numeric"`
	Categorical []CategoricalSummary `yaml:"categorical"`
	Groups      []GroupProfile       `yaml:"groups"`
	// Duplicates counts records identical to an earlier one (ids aside). They are kept.
	Duplicates int `yaml:"duplicates"`
}

// BuildProfile computes the descriptive profile of t.
func BuildProfile(t *dataset.Table) (*Profile, error) {
	all := roaring.New()
	all.AddRange(0, uint64(t.Len()))

	cols := make(map[dataset.Column][]float64, len(dataset.NumericColumns))
	for _, c := range dataset.NumericColumns {
		vals, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		cols[c] = vals
	}
	recs := t.Records()

	p := &Profile{Count: t.Len(), Duplicates: countDuplicates(recs)}
	p.Numeric = numericSummaries(cols, all)
	p.Categorical = categoricalSummaries(recs, all)
	for _, part := range ByProduct(t) {
		if part.IDs.IsEmpty() {
			continue
		}
		p.Groups = append(p.Groups, GroupProfile{
			Product:     part.Product,
			Count:       part.Size(),
			Numeric:     numericSummaries(cols, part.IDs),
			Categorical: categoricalSummaries(recs, part.IDs),
		})
	}
	return p, nil
}

// NumericFor returns the summary of c, if present.
func (p *Profile) NumericFor(c dataset.Column) (NumericSummary, bool) {
	for _, s := range p.Numeric {
		if s.Column == c {
			return s, true
		}
	}
	return NumericSummary{}, false
}

// Group returns the profile of product, if it has records.
func (p *Profile) Group(product dataset.Product) (GroupProfile, bool) {
	for _, g := range p.Groups {
		if g.Product == product {
			return g, true
		}
	}
	return GroupProfile{}, false
}

func numericSummaries(cols map[dataset.Column][]float64, ids *roaring.Bitmap) []NumericSummary {
	out := make([]NumericSummary, 0, len(dataset.NumericColumns))
	for _, c := range dataset.NumericColumns {
		out = append(out, Describe(c, pick(cols[c], ids)))
	}
	return out
}

func categoricalSummaries(recs []dataset.PurchaseRecord, ids *roaring.Bitmap) []CategoricalSummary {
	sets := map[dataset.Column][]string{
		dataset.ColProduct:       labelsOf(dataset.Products),
		dataset.ColGender:        labelsOf(dataset.Genders),
		dataset.ColMaritalStatus: labelsOf(dataset.MaritalStatuses),
	}
	out := make([]CategoricalSummary, 0, len(dataset.CategoricalColumns))
	for _, c := range dataset.CategoricalColumns {
		labels := make([]string, 0, ids.GetCardinality())
		it := ids.Iterator()
		for it.HasNext() {
			labels = append(labels, recs[it.Next()].Label(c))
		}
		out = append(out, summarizeCategories(c, sets[c], labels))
	}
	return out
}

// summarizeCategories counts labels over categories. The mode is the most frequent
// category, ties resolved by category order; empty input has no mode.
func summarizeCategories(c dataset.Column, categories, labels []string) CategoricalSummary {
	s := CategoricalSummary{Column: c, Count: len(labels), Frequencies: make([]Frequency, len(categories))}
	idx := make(map[string]int, len(categories))
	for i, cat := range categories {
		s.Frequencies[i].Value = cat
		idx[cat] = i
	}
	for _, l := range labels {
		if i, ok := idx[l]; ok {
			s.Frequencies[i].Count++
		}
	}
	best := 0
	for i := range s.Frequencies {
		f := &s.Frequencies[i]
		f.Proportion = math.NaN()
		if s.Count > 0 {
			f.Proportion = float64(f.Count) / float64(s.Count)
		}
		if f.Count > best {
			best = f.Count
			s.Mode = f.Value
		}
	}
	return s
}

func countDuplicates(recs []dataset.PurchaseRecord) int {
	seen := make(map[string]struct{}, len(recs))
	dups := 0
	for _, r := range recs {
		key := strings.Join(r.Fields(), "\x1f")
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}
