package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvSource struct{}

func (csvSource) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvSource) ReadRows(path string, opt LoadOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return readCSV(f, filepath.Base(path), delim)
}

func readCSV(r io.Reader, name string, delim rune) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &DataFormatError{Source: name, Err: errors.New("empty file: no header row")}
		}
		return nil, nil, &DataFormatError{Source: name, Err: fmt.Errorf("read header: %w", err)}
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, &DataFormatError{Source: name, Row: len(rows) + 1, Err: err}
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}
