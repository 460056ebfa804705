package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// arrowSource reads Arrow IPC files (.arrow, .feather v2). Column types are free:
// every cell is rendered as text and parsed like any other source.
type arrowSource struct{}

func (arrowSource) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".arrow", ".feather", ".ipc":
		return true
	}
	return false
}

// canonicalNumbers marks sources whose numeric cells never carry locale separators.
func (arrowSource) canonicalNumbers() bool { return true }

func (arrowSource) ReadRows(path string, _ LoadOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open arrow file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(pool))
	if err != nil {
		return nil, nil, &DataFormatError{Source: name, Err: fmt.Errorf("read arrow file: %w", err)}
	}
	defer rdr.Close()

	schema := rdr.Schema()
	if schema.NumFields() == 0 {
		return nil, nil, &DataFormatError{Source: name, Err: errors.New("arrow file has no columns")}
	}
	header := make([]string, schema.NumFields())
	for i, fld := range schema.Fields() {
		header[i] = fld.Name
	}

	var rows [][]string
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.Record(i)
		if err != nil {
			return nil, nil, &DataFormatError{Source: name, Err: fmt.Errorf("read record batch %d: %w", i, err)}
		}
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make([]string, rec.NumCols())
			for c := 0; c < int(rec.NumCols()); c++ {
				row[c] = cellString(rec.Column(c), r)
			}
			rows = append(rows, row)
		}
	}
	return header, rows, nil
}

func cellString(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'f', -1, 32)
	case *array.String:
		return a.Value(i)
	}
	return arr.ValueStr(i)
}
