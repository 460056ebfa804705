package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type xlsxSource struct{}

func (xlsxSource) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

// ReadRows extracts the selected sheet. If SheetName is empty the 1-based SheetIndex
// is used, defaulting to the first sheet.
func (xlsxSource) ReadRows(path string, opt LoadOptions) ([]string, [][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read xlsx: %w", err)
	}
	name := filepath.Base(path)
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, nil, &DataFormatError{Source: name, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	target, err := resolveSheet(sheets, rels, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, nil, &DataFormatError{Source: name, Err: err}
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, nil, &DataFormatError{Source: name, Err: fmt.Errorf("sheet part %s not found", target)}
	}
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))

	rr := newSheetRowReader(sheetXML, shared, opt.DecimalSeparator)
	header, ok := rr.Next()
	if !ok || len(header) == 0 {
		return nil, nil, &DataFormatError{Source: name, Err: errors.New("empty sheet: no header row")}
	}
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if blankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func resolveSheet(sheets []wbSheet, rels map[string]string, sheetName string, sheetIndex int) (string, error) {
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
				break
			}
		}
		available := make([]string, len(sheets))
		for i, s := range sheets {
			available[i] = s.Name
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", sheetName, strings.Join(available, ", "))
	}
	idx := sheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range sheets {
		if s.SheetID == idx {
			if rel, ok := rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value // in r: namespace
			}
		}
		sheets = append(sheets, s)
	}
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows of a worksheet part as dense string slices.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	inRow  bool
	curRow []string
	maxCol int
	// decimal is the separator numeric cells are rewritten to, so they parse
	// like text cells under the same locale.
	decimal rune
}

func newSheetRowReader(data []byte, shared []string, decimal rune) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared, decimal: decimal}
}

func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var rAttr, tAttr string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					}
				}
				colIdx := colIndexFromRef(rAttr)
				if colIdx < 0 {
					colIdx = len(r.curRow)
				}
				if colIdx+1 > r.maxCol {
					r.maxCol = colIdx + 1
				}
				val := r.readCellValue(tAttr)
				if len(r.curRow) <= colIdx {
					tmp := make([]string, colIdx+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[colIdx] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.curRow) < r.maxCol {
					tmp := make([]string, r.maxCol)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.inRow = false
				return r.curRow, true
			}
		}
	}
}

// readCellValue consumes tokens up to </c>, capturing <v> or inline <is><t>.
func (r *sheetRowReader) readCellValue(tAttr string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if tAttr == "s" {
					idx := atoiSafe(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				if tAttr == "" || tAttr == "n" {
					return localizeNumber(val, r.decimal)
				}
				return val
			}
		}
	}
}

// localizeNumber rewrites a stored numeric cell, always written with '.' and no
// grouping, to use dec as its decimal separator.
func localizeNumber(v string, dec rune) string {
	if dec == 0 || dec == '.' {
		return v
	}
	return strings.Replace(v, ".", string(dec), 1)
}

// colIndexFromRef maps a cell reference like "C12" to a 0-based column index, or -1.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP entry names.
// Targets may carry a leading slash ("/xl/worksheets/sheet1.xml"); ZIP entries do not.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}
