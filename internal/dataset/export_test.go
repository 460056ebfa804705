package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bucketColumn = []ExtraColumn{{Name: "age_bucket", Values: []string{"<=20", "31-40", "21-30"}}}

func TestWriteCSVRoundTrip(t *testing.T) {
	src, err := NewTable("mem", sampleRecords())
	require.NoError(t, err)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src, bucketColumn))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "age_bucket", rows[0][len(rows[0])-1])
	assert.Equal(t, "31-40", rows[2][len(rows[2])-1])

	p := filepath.Join(t.TempDir(), "processed.csv")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)
	defer tbl.Release()
	for i := 0; i < src.Len(); i++ {
		assert.Equal(t, src.Record(i), tbl.Record(i))
	}
}

func TestWriteArrowRoundTrip(t *testing.T) {
	src, err := NewTable("mem", sampleRecords())
	require.NoError(t, err)
	defer src.Release()

	p := filepath.Join(t.TempDir(), "processed.arrow")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, WriteArrow(f, src, bucketColumn))
	require.NoError(t, f.Close())

	tbl, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)
	defer tbl.Release()
	require.Equal(t, src.Len(), tbl.Len())
	assert.Equal(t, src.Record(2), tbl.Record(2))

	f, err = os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(pool))
	require.NoError(t, err)
	defer rdr.Close()
	require.Equal(t, len(RequiredColumns)+1, rdr.Schema().NumFields())
	rec, err := rdr.Record(0)
	require.NoError(t, err)
	buckets, ok := rec.Column(len(RequiredColumns)).(*array.String)
	require.True(t, ok)
	assert.Equal(t, "<=20", buckets.Value(0))
}

func TestWriteRejectsMismatchedExtraColumns(t *testing.T) {
	src, err := NewTable("mem", sampleRecords())
	require.NoError(t, err)
	defer src.Release()

	short := []ExtraColumn{{Name: "age_bucket", Values: []string{"<=20"}}}
	assert.ErrorContains(t, WriteCSV(&bytes.Buffer{}, src, short), "has 1 values")
	assert.ErrorContains(t, WriteArrow(&bytes.Buffer{}, src, short), "has 1 values")

	dup := []ExtraColumn{{Name: "income", Values: []string{"a", "b", "c"}}}
	assert.ErrorContains(t, WriteCSV(&bytes.Buffer{}, src, dup), "duplicate column")
}
