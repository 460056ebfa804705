package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var pool = memory.NewGoAllocator()

var tableSchema = arrow.NewSchema([]arrow.Field{
	{Name: string(ColProduct), Type: arrow.BinaryTypes.String},
	{Name: string(ColAge), Type: arrow.PrimitiveTypes.Int64},
	{Name: string(ColGender), Type: arrow.BinaryTypes.String},
	{Name: string(ColEducation), Type: arrow.PrimitiveTypes.Int64},
	{Name: string(ColMaritalStatus), Type: arrow.BinaryTypes.String},
	{Name: string(ColUsage), Type: arrow.PrimitiveTypes.Int64},
	{Name: string(ColFitness), Type: arrow.PrimitiveTypes.Int64},
	{Name: string(ColIncome), Type: arrow.PrimitiveTypes.Float64},
	{Name: string(ColMiles), Type: arrow.PrimitiveTypes.Float64},
}, nil)

// Schema returns the Arrow schema of a loaded table.
func Schema() *arrow.Schema { return tableSchema }

// Table is the immutable in-memory dataset: the ordered records plus an Arrow
// record holding the same values column by column.
type Table struct {
	name    string
	records []PurchaseRecord
	cols    arrow.Record
}

// NewTable validates recs and builds a table. Record IDs are reassigned to positions.
func NewTable(name string, recs []PurchaseRecord) (*Table, error) {
	out := make([]PurchaseRecord, len(recs))
	for i, r := range recs {
		if col, err := r.Check(); err != nil {
			return nil, &DataFormatError{Source: name, Row: i + 1, Column: col, Value: r.Label(col), Err: err}
		}
		r.ID = i
		out[i] = r
	}
	return &Table{name: name, records: out, cols: buildColumns(out)}, nil
}

func buildColumns(recs []PurchaseRecord) arrow.Record {
	b := array.NewRecordBuilder(pool, tableSchema)
	defer b.Release()

	product := b.Field(0).(*array.StringBuilder)
	age := b.Field(1).(*array.Int64Builder)
	gender := b.Field(2).(*array.StringBuilder)
	edu := b.Field(3).(*array.Int64Builder)
	marital := b.Field(4).(*array.StringBuilder)
	usage := b.Field(5).(*array.Int64Builder)
	fitness := b.Field(6).(*array.Int64Builder)
	income := b.Field(7).(*array.Float64Builder)
	miles := b.Field(8).(*array.Float64Builder)

	for _, r := range recs {
		product.Append(string(r.Product))
		age.Append(int64(r.Age))
		gender.Append(string(r.Gender))
		edu.Append(int64(r.Education))
		marital.Append(string(r.MaritalStatus))
		usage.Append(int64(r.Usage))
		fitness.Append(int64(r.Fitness))
		income.Append(r.Income)
		miles.Append(r.Miles)
	}
	return b.NewRecord()
}

// Name is the base name of the source the table was loaded from.
func (t *Table) Name() string { return t.name }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Record returns the record at position i.
func (t *Table) Record(i int) PurchaseRecord { return t.records[i] }

// Records returns a copy of all records in load order.
func (t *Table) Records() []PurchaseRecord {
	out := make([]PurchaseRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Arrow exposes the columnar view. The caller must not release it.
func (t *Table) Arrow() arrow.Record { return t.cols }

// Column returns a numeric column as float64 values in record order.
func (t *Table) Column(c Column) ([]float64, error) {
	idx := columnIndex(c)
	if idx < 0 {
		return nil, fmt.Errorf("unknown column %q", c)
	}
	switch arr := t.cols.Column(idx).(type) {
	case *array.Int64:
		vals := arr.Int64Values()
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case *array.Float64:
		return append([]float64(nil), arr.Float64Values()...), nil
	default:
		return nil, fmt.Errorf("column %s is not numeric", c)
	}
}

// Labels returns the text of any column in record order.
func (t *Table) Labels(c Column) ([]string, error) {
	idx := columnIndex(c)
	if idx < 0 {
		return nil, fmt.Errorf("unknown column %q", c)
	}
	arr := t.cols.Column(idx)
	out := make([]string, arr.Len())
	if s, ok := arr.(*array.String); ok {
		for i := range out {
			out[i] = s.Value(i)
		}
		return out, nil
	}
	for i := range out {
		out[i] = t.records[i].Label(c)
	}
	return out, nil
}

// Release frees the Arrow buffers. The table must not be used afterwards.
func (t *Table) Release() {
	if t.cols != nil {
		t.cols.Release()
		t.cols = nil
	}
}

func columnIndex(c Column) int {
	for i, rc := range RequiredColumns {
		if rc == c {
			return i
		}
	}
	return -1
}
