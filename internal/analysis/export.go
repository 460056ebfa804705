package analysis

import "github.com/KaramelBytes/aerofit-cli/internal/dataset"

// DerivedDimensions are appended to an exported dataset, in this order.
var DerivedDimensions = []string{DimAgeBucket, DimUsageCategory, DimIncomeBucket, DimMilesCategory}

// DerivedColumns evaluates every derived dimension over t as one label per record.
func DerivedColumns(t *dataset.Table) ([]dataset.ExtraColumn, error) {
	out := make([]dataset.ExtraColumn, 0, len(DerivedDimensions))
	for _, name := range DerivedDimensions {
		d, err := NewDimension(t, name)
		if err != nil {
			return nil, err
		}
		vals := make([]string, len(d.Assign))
		for i, a := range d.Assign {
			vals[i] = d.Categories[a]
		}
		out = append(out, dataset.ExtraColumn{Name: d.Name, Values: vals})
	}
	return out, nil
}
