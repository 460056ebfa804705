package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ExtraColumn is a text column appended to an export, one value per record.
type ExtraColumn struct {
	Name   string
	Values []string
}

func checkExtra(t *Table, extra []ExtraColumn) error {
	seen := make(map[string]struct{}, len(RequiredColumns)+len(extra))
	for _, c := range RequiredColumns {
		seen[normalizeHeader(string(c))] = struct{}{}
	}
	for _, e := range extra {
		if len(e.Values) != t.Len() {
			return fmt.Errorf("column %s has %d values, table has %d records", e.Name, len(e.Values), t.Len())
		}
		key := normalizeHeader(e.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate column %q", e.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// WriteCSV writes the canonical columns of t followed by extra.
func WriteCSV(w io.Writer, t *Table, extra []ExtraColumn) error {
	if err := checkExtra(t, extra); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(RequiredColumns)+len(extra))
	for _, c := range RequiredColumns {
		header = append(header, string(c))
	}
	for _, e := range extra {
		header = append(header, e.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, rec := range t.records {
		row := rec.Fields()
		for _, e := range extra {
			row = append(row, e.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArrow writes t and extra as a single-batch Arrow IPC file.
func WriteArrow(w io.Writer, t *Table, extra []ExtraColumn) error {
	if err := checkExtra(t, extra); err != nil {
		return err
	}
	fields := append([]arrow.Field(nil), tableSchema.Fields()...)
	cols := make([]arrow.Array, 0, len(fields)+len(extra))
	for i := range fields {
		cols = append(cols, t.cols.Column(i))
	}
	for _, e := range extra {
		fields = append(fields, arrow.Field{Name: e.Name, Type: arrow.BinaryTypes.String})
		b := array.NewStringBuilder(pool)
		b.AppendValues(e.Values, nil)
		arr := b.NewArray()
		b.Release()
		defer arr.Release()
		cols = append(cols, arr)
	}
	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, cols, int64(t.Len()))
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("open arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	return fw.Close()
}
