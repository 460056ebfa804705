package dataset

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LoadOptions controls how raw cells are read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, chosen from the file extension (',' or '\t').
	Delimiter rune
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator; if 0, ',' '.' and space are stripped when they differ from the decimal separator.
	ThousandsSeparator rune
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultLoadOptions returns options for plain comma-separated exports.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{DecimalSeparator: '.', SheetIndex: 1}
}

// Source reads a tabular file into a header and string cells.
type Source interface {
	CanLoad(path string) bool
	ReadRows(path string, opt LoadOptions) (header []string, rows [][]string, err error)
}

var registry []Source

// Register adds a source implementation to the registry.
func Register(s Source) {
	registry = append(registry, s)
}

func init() {
	Register(csvSource{})
	Register(xlsxSource{})
	Register(arrowSource{})
}

// Load reads path with the first registered source that accepts it (CSV otherwise)
// and returns the validated table.
func Load(path string, opt LoadOptions) (*Table, error) {
	var src Source = csvSource{}
	for _, s := range registry {
		if s.CanLoad(path) {
			src = s
			break
		}
	}
	header, rows, err := src.ReadRows(path, opt)
	if err != nil {
		return nil, err
	}
	if cs, ok := src.(interface{ canonicalNumbers() bool }); ok && cs.canonicalNumbers() {
		opt.DecimalSeparator, opt.ThousandsSeparator = '.', ','
	}
	t, err := FromRows(filepath.Base(path), header, rows, opt)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("dataset loaded",
		zap.String("source", path),
		zap.String("reader", fmt.Sprintf("%T", src)),
		zap.Int("records", t.Len()))
	return t, nil
}

// FromRows maps header names onto the required columns and parses every row.
// Extra columns are ignored.
func FromRows(name string, header []string, rows [][]string, opt LoadOptions) (*Table, error) {
	idx, err := mapHeader(header)
	if err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) {
			dfe.Source = name
		}
		return nil, err
	}
	recs := make([]PurchaseRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRow(row, idx, opt)
		if err != nil {
			err.Source = name
			err.Row = i + 1
			return nil, err
		}
		recs = append(recs, rec)
	}
	return NewTable(name, recs)
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func mapHeader(header []string) (map[Column]int, error) {
	want := make(map[string]Column, len(RequiredColumns))
	for _, c := range RequiredColumns {
		want[normalizeHeader(string(c))] = c
	}
	idx := make(map[Column]int, len(RequiredColumns))
	for i, h := range header {
		c, ok := want[normalizeHeader(strings.TrimPrefix(h, "\ufeff"))]
		if !ok {
			continue
		}
		if _, dup := idx[c]; dup {
			return nil, &DataFormatError{Column: c, Err: errors.New("duplicate column")}
		}
		idx[c] = i
	}
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, &DataFormatError{Column: c, Err: ErrMissingColumn}
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[Column]int, opt LoadOptions) (PurchaseRecord, *DataFormatError) {
	var rec PurchaseRecord
	for _, c := range RequiredColumns {
		j := idx[c]
		raw := ""
		if j < len(row) {
			raw = strings.TrimSpace(row[j])
		}
		if raw == "" {
			return rec, &DataFormatError{Column: c, Err: ErrMissingValue}
		}
		if err := assign(&rec, c, raw, opt); err != nil {
			return rec, &DataFormatError{Column: c, Value: raw, Err: err}
		}
	}
	if col, err := rec.Check(); err != nil {
		return rec, &DataFormatError{Column: col, Value: rec.Label(col), Err: err}
	}
	return rec, nil
}

func assign(rec *PurchaseRecord, c Column, raw string, opt LoadOptions) error {
	var err error
	switch c {
	case ColProduct:
		rec.Product, err = ParseProduct(raw)
	case ColGender:
		rec.Gender, err = ParseGender(raw)
	case ColMaritalStatus:
		rec.MaritalStatus, err = ParseMaritalStatus(raw)
	case ColAge:
		rec.Age, err = parseInt(raw, opt)
	case ColEducation:
		rec.Education, err = parseInt(raw, opt)
	case ColUsage:
		rec.Usage, err = parseInt(raw, opt)
	case ColFitness:
		rec.Fitness, err = parseInt(raw, opt)
	case ColIncome:
		rec.Income, err = parseNumeric(raw, opt)
	case ColMiles:
		rec.Miles, err = parseNumeric(raw, opt)
	}
	return err
}

func parseInt(s string, opt LoadOptions) (int, error) {
	f, err := parseNumeric(s, opt)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func parseNumeric(s string, opt LoadOptions) (float64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00A0", " ")
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	thou := opt.ThousandsSeparator
	// Remove thousands separators (common: ',', '.', space) if they differ from decimal
	seps := []rune{thou}
	if thou == 0 {
		seps = []rune{',', '.', ' '}
	}
	for _, sep := range seps {
		if sep == dec {
			continue
		}
		var err error
		if raw, err = stripGrouping(raw, sep, dec); err != nil {
			return 0, fmt.Errorf("%w: %q", err, s)
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

var errBadGrouping = errors.New("malformed digit grouping")

// stripGrouping removes sep from the integer part of raw. Groups after the
// first must be exactly three digits and sep may not appear after dec.
func stripGrouping(raw string, sep, dec rune) (string, error) {
	if !strings.ContainsRune(raw, sep) {
		return raw, nil
	}
	intPart, frac, _ := strings.Cut(raw, string(dec))
	if strings.ContainsRune(frac, sep) {
		return "", errBadGrouping
	}
	groups := strings.Split(strings.TrimLeft(intPart, "+-"), string(sep))
	if n := len(groups[0]); n < 1 || n > 3 {
		return "", errBadGrouping
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", errBadGrouping
		}
	}
	return strings.ReplaceAll(raw, string(sep), ""), nil
}
