package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataFormat matches every *DataFormatError via errors.Is.
var ErrDataFormat = errors.New("data format error")

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMissingValue  = errors.New("missing value")
)

// DataFormatError reports a malformed source: a missing column, or a value that does not
// parse against its declared type or violates a record invariant. Row is 1-based and
// excludes the header; 0 means the problem is in the header itself.
type DataFormatError struct {
	Source string
	Row    int
	Column Column
	Value  string
	Err    error
}

func (e *DataFormatError) Error() string {
	var b strings.Builder
	b.WriteString("data format error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %s", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (value %q)", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }
