package dataset

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []PurchaseRecord {
	return []PurchaseRecord{
		{Product: KP281, Age: 18, Gender: Male, Education: 14, MaritalStatus: Single, Usage: 3, Fitness: 4, Income: 29562, Miles: 112},
		{Product: KP481, Age: 31, Gender: Female, Education: 16, MaritalStatus: Partnered, Usage: 3, Fitness: 3, Income: 52302, Miles: 95},
		{Product: KP781, Age: 28, Gender: Female, Education: 18, MaritalStatus: Partnered, Usage: 5, Fitness: 5, Income: 88396.5, Miles: 180},
	}
}

func TestNewTableColumns(t *testing.T) {
	recs := sampleRecords()
	recs[0].ID = 42
	tbl, err := NewTable("mem", recs)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, 0, tbl.Record(0).ID, "ids are positional")
	assert.Equal(t, 2, tbl.Record(2).ID)

	ages, err := tbl.Column(ColAge)
	require.NoError(t, err)
	assert.Equal(t, []float64{18, 31, 28}, ages)

	income, err := tbl.Column(ColIncome)
	require.NoError(t, err)
	assert.Equal(t, []float64{29562, 52302, 88396.5}, income)

	products, err := tbl.Labels(ColProduct)
	require.NoError(t, err)
	assert.Equal(t, []string{"KP281", "KP481", "KP781"}, products)

	fitness, err := tbl.Labels(ColFitness)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "5"}, fitness)

	_, err = tbl.Column(ColGender)
	assert.Error(t, err)
	_, err = tbl.Column(Column("Weight"))
	assert.Error(t, err)
}

func TestTableArrowSchema(t *testing.T) {
	tbl, err := NewTable("mem", sampleRecords())
	require.NoError(t, err)
	defer tbl.Release()

	rec := tbl.Arrow()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(len(RequiredColumns)), rec.NumCols())
	assert.True(t, rec.Schema().Equal(Schema()))
	assert.Equal(t, arrow.INT64, rec.Column(1).DataType().ID())
	assert.Equal(t, arrow.FLOAT64, rec.Column(7).DataType().ID())
}

func TestNewTableRejectsInvalidRecord(t *testing.T) {
	recs := sampleRecords()
	recs[1].Fitness = 0
	_, err := NewTable("mem", recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataFormat)
	var dfe *DataFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, 2, dfe.Row)
	assert.Equal(t, ColFitness, dfe.Column)
}

func TestRecordsReturnsCopy(t *testing.T) {
	tbl, err := NewTable("mem", sampleRecords())
	require.NoError(t, err)
	recs := tbl.Records()
	recs[0].Age = 99
	assert.Equal(t, 18, tbl.Record(0).Age)
}

func TestRecordFieldsRoundTripThroughRows(t *testing.T) {
	header := make([]string, len(RequiredColumns))
	for i, c := range RequiredColumns {
		header[i] = string(c)
	}
	var rows [][]string
	for _, r := range sampleRecords() {
		rows = append(rows, r.Fields())
	}
	tbl, err := FromRows("rows", header, rows, DefaultLoadOptions())
	require.NoError(t, err)
	for i, want := range sampleRecords() {
		want.ID = i
		assert.Equal(t, want, tbl.Record(i))
	}
}
