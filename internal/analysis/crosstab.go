package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

var (
	// ErrDivisionUndefined is returned when a conditional probability has a zero denominator.
	ErrDivisionUndefined = errors.New("division undefined: conditioning category has no records")
	ErrUnknownCategory   = errors.New("unknown category")
)

// ContingencyTable counts records by the joint categories of two dimensions.
type ContingencyTable struct {
	RowDim    string   `yaml:"row_dimension"`
	ColDim    string   `yaml:"col_dimension"`
	Rows      []string `yaml:"rows"`
	Cols      []string `yaml:"cols"`
	Counts    [][]int  `yaml:"counts"`
	RowTotals []int    `yaml:"row_totals"`
	ColTotals []int    `yaml:"col_totals"`
	Total     int      `yaml:"total"`
}

// CrossTab builds the contingency table of rowDim by colDim over t.
func CrossTab(t *dataset.Table, rowDim, colDim string) (*ContingencyTable, error) {
	rd, err := NewDimension(t, rowDim)
	if err != nil {
		return nil, err
	}
	cd, err := NewDimension(t, colDim)
	if err != nil {
		return nil, err
	}
	return NewContingencyTable(rd, cd), nil
}

// NewContingencyTable counts two dimensions evaluated over the same records.
func NewContingencyTable(rows, cols Dimension) *ContingencyTable {
	ct := &ContingencyTable{
		RowDim:    rows.Name,
		ColDim:    cols.Name,
		Rows:      append([]string(nil), rows.Categories...),
		Cols:      append([]string(nil), cols.Categories...),
		Counts:    make([][]int, len(rows.Categories)),
		RowTotals: make([]int, len(rows.Categories)),
		ColTotals: make([]int, len(cols.Categories)),
	}
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(cols.Categories))
	}
	for k := range rows.Assign {
		i, j := rows.Assign[k], cols.Assign[k]
		ct.Counts[i][j]++
		ct.RowTotals[i]++
		ct.ColTotals[j]++
		ct.Total++
	}
	return ct
}

// RowNormalized returns P(col | row) per cell. Rows with no records are NaN.
func (c *ContingencyTable) RowNormalized() [][]float64 {
	return c.normalize(func(i, _ int) int { return c.RowTotals[i] })
}

// ColNormalized returns P(row | col) per cell. Columns with no records are NaN.
func (c *ContingencyTable) ColNormalized() [][]float64 {
	return c.normalize(func(_, j int) int { return c.ColTotals[j] })
}

// Joint returns count / total per cell. An empty table is all NaN.
func (c *ContingencyTable) Joint() [][]float64 {
	return c.normalize(func(_, _ int) int { return c.Total })
}

func (c *ContingencyTable) normalize(denom func(i, j int) int) [][]float64 {
	out := make([][]float64, len(c.Rows))
	for i := range c.Rows {
		out[i] = make([]float64, len(c.Cols))
		for j := range c.Cols {
			d := denom(i, j)
			if d == 0 {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = float64(c.Counts[i][j]) / float64(d)
		}
	}
	return out
}

// ProbRowGivenCol returns P(RowDim = row | ColDim = col).
func (c *ContingencyTable) ProbRowGivenCol(row, col string) (float64, error) {
	i, j, err := c.cell(row, col)
	if err != nil {
		return 0, err
	}
	if c.ColTotals[j] == 0 {
		return 0, fmt.Errorf("P(%s=%s | %s=%s): %w", c.RowDim, row, c.ColDim, col, ErrDivisionUndefined)
	}
	return float64(c.Counts[i][j]) / float64(c.ColTotals[j]), nil
}

// ProbColGivenRow returns P(ColDim = col | RowDim = row).
func (c *ContingencyTable) ProbColGivenRow(row, col string) (float64, error) {
	i, j, err := c.cell(row, col)
	if err != nil {
		return 0, err
	}
	if c.RowTotals[i] == 0 {
		return 0, fmt.Errorf("P(%s=%s | %s=%s): %w", c.ColDim, col, c.RowDim, row, ErrDivisionUndefined)
	}
	return float64(c.Counts[i][j]) / float64(c.RowTotals[i]), nil
}

func (c *ContingencyTable) cell(row, col string) (int, int, error) {
	i := indexFold(c.Rows, row)
	if i < 0 {
		return 0, 0, fmt.Errorf("%s=%q: %w", c.RowDim, row, ErrUnknownCategory)
	}
	j := indexFold(c.Cols, col)
	if j < 0 {
		return 0, 0, fmt.Errorf("%s=%q: %w", c.ColDim, col, ErrUnknownCategory)
	}
	return i, j, nil
}

func indexFold(labels []string, s string) int {
	return Dimension{Categories: labels}.Index(s)
}

// Marginal returns the share of records in each category of d.
func Marginal(d Dimension) []Frequency {
	counts := d.Counts()
	out := make([]Frequency, len(d.Categories))
	for i, cat := range d.Categories {
		out[i] = Frequency{Value: cat, Count: counts[i], Proportion: math.NaN()}
		if len(d.Assign) > 0 {
			out[i].Proportion = float64(counts[i]) / float64(len(d.Assign))
		}
	}
	return out
}

// Conditional is one evaluated P(event | given) over two dimensions.
type Conditional struct {
	EventDim   string  `yaml:"event_dimension"`
	Event      string  `yaml:"event"`
	GivenDim   string  `yaml:"given_dimension"`
	Given      string  `yaml:"given"`
	Joint      int     `yaml:"joint_count"`
	GivenCount int     `yaml:"given_count"`
	P          float64 `yaml:"p"`
	// Defined is false when GivenCount is zero; P is NaN then.
	Defined bool `yaml:"defined"`
}

// Conditionals lists P(row | col) for every cell of c.
func (c *ContingencyTable) Conditionals() []Conditional {
	out := make([]Conditional, 0, len(c.Rows)*len(c.Cols))
	for j, col := range c.Cols {
		for i, row := range c.Rows {
			cd := Conditional{
				EventDim: c.RowDim, Event: row, GivenDim: c.ColDim, Given: col,
				Joint: c.Counts[i][j], GivenCount: c.ColTotals[j], P: math.NaN(),
			}
			if p, err := c.ProbRowGivenCol(row, col); err == nil {
				cd.P, cd.Defined = p, true
			}
			out = append(out, cd)
		}
	}
	return out
}
