package analysis

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// Partition is the set of record ids belonging to one product.
type Partition struct {
	Product dataset.Product
	IDs     *roaring.Bitmap
}

// Size is the number of records in the partition.
func (p Partition) Size() int { return int(p.IDs.GetCardinality()) }

// ByProduct splits t by exact Product equality, in catalogue order. Empty groups are kept.
func ByProduct(t *dataset.Table) []Partition {
	parts := make([]Partition, len(dataset.Products))
	index := make(map[dataset.Product]int, len(dataset.Products))
	for i, p := range dataset.Products {
		parts[i] = Partition{Product: p, IDs: roaring.New()}
		index[p] = i
	}
	for i := 0; i < t.Len(); i++ {
		r := t.Record(i)
		parts[index[r.Product]].IDs.Add(uint32(r.ID))
	}
	return parts
}

// pick returns vals at the positions in ids, in id order.
func pick(vals []float64, ids *roaring.Bitmap) []float64 {
	out := make([]float64, 0, ids.GetCardinality())
	it := ids.Iterator()
	for it.HasNext() {
		out = append(out, vals[it.Next()])
	}
	return out
}
