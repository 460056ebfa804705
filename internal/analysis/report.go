package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// Options controls which aggregates a report carries.
type Options struct {
	// SampleRows determines how many leading records to include in the report.
	SampleRows int
	// IQRMultiplier sets the outlier fence width; 1.5 when unset.
	IQRMultiplier float64
	// CrossTabs lists dimension pairs, row dimension first.
	CrossTabs [][2]string
	// TopPairs limits per-product correlation pairs; 0 means all.
	TopPairs int
}

// DefaultCrossTabs pairs Product with every other dimension.
var DefaultCrossTabs = [][2]string{
	{"Product", "Gender"},
	{"Product", "MaritalStatus"},
	{"Product", "Fitness"},
	{"Product", "Education"},
	{"Product", DimUsageCategory},
	{"Product", DimAgeBucket},
	{"Product", DimIncomeBucket},
	{"Product", DimMilesCategory},
}

// DefaultOptions returns the settings used by the analyze command.
func DefaultOptions() Options {
	return Options{
		SampleRows:    5,
		IQRMultiplier: DefaultIQRMultiplier,
		CrossTabs:     DefaultCrossTabs,
		TopPairs:      3,
	}
}

// Report bundles every aggregate computed from one table.
type Report struct {
	Name         string              `yaml:"name"`
	Rows         int                 `yaml:"rows"`
	Profile      *Profile            `yaml:"profile"`
	CrossTabs    []*ContingencyTable `yaml:"crosstabs"`
	Conditionals []Conditional       `yaml:"conditionals"`
	Corr         *CorrMatrix         `yaml:"correlations"`
	GroupCorr    []GroupCorrelation  `yaml:"group_correlations"`
	Outliers     *OutlierReport      `yaml:"outliers"`
	Samples      [][]string          `yaml:"samples,omitempty"`
	Warnings     []string            `yaml:"notes,omitempty"`
}

// Analyze runs the profiler, cross-tabulator, correlation and outlier passes over t.
func Analyze(t *dataset.Table, opt Options) (*Report, error) {
	if opt.IQRMultiplier == 0 {
		opt.IQRMultiplier = DefaultIQRMultiplier
	}
	r := &Report{Name: t.Name(), Rows: t.Len()}

	var err error
	if r.Profile, err = BuildProfile(t); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	for _, pair := range opt.CrossTabs {
		ct, err := CrossTab(t, pair[0], pair[1])
		if err != nil {
			return nil, fmt.Errorf("crosstab %s x %s: %w", pair[0], pair[1], err)
		}
		r.CrossTabs = append(r.CrossTabs, ct)
		r.Conditionals = append(r.Conditionals, ct.Conditionals()...)
	}
	if r.Corr, err = Correlations(t); err != nil {
		return nil, fmt.Errorf("correlations: %w", err)
	}
	if r.GroupCorr, err = GroupCorrelations(t, opt.TopPairs); err != nil {
		return nil, fmt.Errorf("group correlations: %w", err)
	}
	if r.Outliers, err = DetectOutliers(t, opt.IQRMultiplier); err != nil {
		return nil, fmt.Errorf("outliers: %w", err)
	}

	n := opt.SampleRows
	if n > t.Len() {
		n = t.Len()
	}
	for i := 0; i < n; i++ {
		rec := t.Record(i)
		r.Samples = append(r.Samples, append([]string{strconv.Itoa(rec.ID)}, rec.Fields()...))
	}
	r.Warnings = r.notes()
	return r, nil
}

func (r *Report) notes() []string {
	var out []string
	if r.Profile.Duplicates > 0 {
		out = append(out, fmt.Sprintf("%d duplicate record(s) detected; kept in all aggregates", r.Profile.Duplicates))
	}
	for _, p := range dataset.Products {
		if _, ok := r.Profile.Group(p); !ok {
			out = append(out, fmt.Sprintf("no records for product %s; its group statistics are omitted", p))
		}
	}
	for _, s := range r.Profile.Numeric {
		if s.Count > 1 && s.Std == 0 {
			out = append(out, fmt.Sprintf("%s is constant; its correlations are undefined (NaN)", s.Column))
		}
	}
	undefined := 0
	for _, c := range r.Conditionals {
		if !c.Defined {
			undefined++
		}
	}
	if undefined > 0 {
		out = append(out, fmt.Sprintf("%d conditional probabilit(ies) undefined: conditioning category has no records", undefined))
	}
	extreme := 0
	for _, s := range r.Outliers.Sets {
		extreme += int(s.Extreme.GetCardinality())
	}
	if extreme > 0 {
		out = append(out, fmt.Sprintf("%d value(s) lie beyond the 3x IQR outer fences", extreme))
	}
	return out
}

// YAML renders the full report. Undefined values encode as .nan.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(dataset.RequiredColumns)))
	for _, g := range r.Profile.Groups {
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", g.Product, g.Count, pct(g.Count, r.Rows)))
	}

	if findings := r.findings(); len(findings) > 0 {
		b.WriteString("\n[KEY FINDINGS]\n")
		for _, f := range findings {
			b.WriteString("- " + f + "\n")
		}
	}

	b.WriteString("\n[NUMERIC PROFILE]\n")
	writeNumericTable(&b, r.Profile.Numeric)

	b.WriteString("\n[CATEGORICAL PROFILE]\n")
	for _, c := range r.Profile.Categorical {
		writeCategorical(&b, "", c)
	}

	if len(r.Profile.Groups) > 0 {
		b.WriteString("\n[BY PRODUCT]\n")
		for _, g := range r.Profile.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Product, g.Count))
			for _, s := range g.Numeric {
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g, median %.4g (min %.4g, max %.4g)\n", s.Column, s.Mean, s.P50, s.Min, s.Max))
			}
			for _, c := range g.Categorical {
				if c.Column == dataset.ColProduct {
					continue
				}
				writeCategorical(&b, "  • ", c)
			}
		}
	}

	for _, ct := range r.CrossTabs {
		b.WriteString(fmt.Sprintf("\n[CONTINGENCY: %s x %s]\n", ct.RowDim, ct.ColDim))
		writeContingency(&b, ct)
	}

	if len(r.Conditionals) > 0 {
		b.WriteString("\n[CONDITIONAL PROBABILITIES]\n")
		for _, c := range r.Conditionals {
			if !c.Defined {
				b.WriteString(fmt.Sprintf("- P(%s=%s | %s=%s) undefined (no records with %s=%s)\n",
					c.EventDim, c.Event, c.GivenDim, c.Given, c.GivenDim, c.Given))
				continue
			}
			b.WriteString(fmt.Sprintf("- P(%s=%s | %s=%s) = %.3f (%d/%d)\n",
				c.EventDim, c.Event, c.GivenDim, c.Given, c.P, c.Joint, c.GivenCount))
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		writeCorrMatrix(&b, r.Corr)
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	hasGCorr := false
	for _, g := range r.GroupCorr {
		if len(g.Pairs) > 0 {
			hasGCorr = true
			break
		}
	}
	if hasGCorr {
		b.WriteString("\n[PER-PRODUCT CORRELATIONS]\n")
		for _, g := range r.GroupCorr {
			if len(g.Pairs) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s:\n", g.Product))
			for _, p := range g.Pairs {
				b.WriteString(fmt.Sprintf("  • %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
			}
		}
	}

	if r.Outliers != nil {
		b.WriteString("\n")
		writeOutliers(&b, r.Outliers.Multiplier, r.Outliers.Sets, false)
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		header := append([]string{"ID"}, columnNames(dataset.RequiredColumns)...)
		writeRow(&b, header)
		writeRule(&b, len(header))
		for _, row := range r.Samples {
			writeRow(&b, row)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// findings are short narrative statements for the marketing summary.
func (r *Report) findings() []string {
	var out []string
	for _, g := range r.Profile.Groups {
		line := fmt.Sprintf("%s buyers: %.1f%% of sales", g.Product, pct(g.Count, r.Rows))
		for _, s := range g.Numeric {
			switch s.Column {
			case dataset.ColIncome:
				line += fmt.Sprintf(", median income %.0f", s.P50)
			case dataset.ColUsage:
				line += fmt.Sprintf(", mean usage %.2f/week", s.Mean)
			}
		}
		for _, c := range g.Categorical {
			if c.Column == dataset.ColGender && c.Mode != "" {
				line += fmt.Sprintf(", mostly %s", strings.ToLower(c.Mode))
			}
		}
		out = append(out, line)
	}
	if r.Corr != nil {
		if top := r.Corr.TopPairs(1); len(top) > 0 {
			out = append(out, fmt.Sprintf("strongest correlation: %s ~ %s (r=%.3f)", top[0].A, top[0].B, top[0].R))
		}
	}
	return out
}

func writeNumericTable(b *strings.Builder, rows []NumericSummary) {
	writeRow(b, []string{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
	writeRule(b, 9)
	for _, s := range rows {
		writeRow(b, []string{
			string(s.Column), strconv.Itoa(s.Count), num(s.Mean), num(s.Std), num(s.Min),
			num(s.P25), num(s.P50), num(s.P75), num(s.Max),
		})
	}
}

func writeCategorical(b *strings.Builder, prefix string, c CategoricalSummary) {
	if prefix == "" {
		prefix = "- "
	}
	b.WriteString(fmt.Sprintf("%s%s (mode %s): ", prefix, c.Column, orDash(c.Mode)))
	for i, f := range c.Frequencies {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s %d (%.1f%%)", f.Value, f.Count, f.Proportion*100))
	}
	b.WriteString("\n")
}

func writeContingency(b *strings.Builder, ct *ContingencyTable) {
	header := append([]string{ct.RowDim + " \\ " + ct.ColDim}, ct.Cols...)
	header = append(header, "Total")
	writeRow(b, header)
	writeRule(b, len(header))
	for i, row := range ct.Rows {
		cells := []string{row}
		for j := range ct.Cols {
			cells = append(cells, strconv.Itoa(ct.Counts[i][j]))
		}
		cells = append(cells, strconv.Itoa(ct.RowTotals[i]))
		writeRow(b, cells)
	}
	totals := []string{"Total"}
	for _, t := range ct.ColTotals {
		totals = append(totals, strconv.Itoa(t))
	}
	totals = append(totals, strconv.Itoa(ct.Total))
	writeRow(b, totals)
}

// Normalization selects the cell values of a rendered contingency table.
type Normalization string

const (
	NormNone  Normalization = "none"
	NormRow   Normalization = "row"
	NormCol   Normalization = "col"
	NormJoint Normalization = "joint"
)

// ParseNormalization accepts none, row, col (or column) and joint; empty means none.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "counts":
		return NormNone, nil
	case "row", "rows":
		return NormRow, nil
	case "col", "cols", "column":
		return NormCol, nil
	case "joint", "all":
		return NormJoint, nil
	}
	return "", fmt.Errorf("unknown normalization %q (use none|row|col|joint)", s)
}

// Markdown renders the table as counts, or as shares under the chosen normalization.
func (c *ContingencyTable) Markdown(norm Normalization) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[CONTINGENCY: %s x %s]\n", c.RowDim, c.ColDim))
	var shares [][]float64
	switch norm {
	case NormRow:
		shares = c.RowNormalized()
	case NormCol:
		shares = c.ColNormalized()
	case NormJoint:
		shares = c.Joint()
	default:
		writeContingency(&b, c)
		return b.String()
	}
	header := append([]string{c.RowDim + " \\ " + c.ColDim}, c.Cols...)
	writeRow(&b, header)
	writeRule(&b, len(header))
	for i, row := range c.Rows {
		cells := []string{row}
		for j := range c.Cols {
			cells = append(cells, corr(shares[i][j]))
		}
		writeRow(&b, cells)
	}
	return b.String()
}

// Markdown renders the fence table. With ids, flagged record ids follow each row.
func (r *OutlierReport) Markdown(sets []OutlierSet, ids bool) string {
	var b strings.Builder
	writeOutliers(&b, r.Multiplier, sets, ids)
	return b.String()
}

func writeOutliers(b *strings.Builder, k float64, sets []OutlierSet, ids bool) {
	b.WriteString(fmt.Sprintf("[OUTLIERS: %.4g x IQR]\n", k))
	b.WriteString("| Product | Column | Q1 | Q3 | IQR | Lower | Upper | Flagged | Extreme |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, s := range sets {
		b.WriteString(fmt.Sprintf("| %s | %s | %.4g | %.4g | %.4g | %.4g | %.4g | %d | %d |\n",
			s.Product, s.Column, s.Q1, s.Q3, s.IQR, s.Lower, s.Upper,
			s.Flagged.GetCardinality(), s.Extreme.GetCardinality()))
	}
	if !ids {
		return
	}
	for _, s := range sets {
		if s.Flagged.IsEmpty() {
			continue
		}
		parts := make([]string, 0, s.Flagged.GetCardinality())
		for _, id := range s.IDs() {
			parts = append(parts, strconv.Itoa(id))
		}
		b.WriteString(fmt.Sprintf("- %s %s: ids %s\n", s.Product, s.Column, strings.Join(parts, ", ")))
	}
}

func writeCorrMatrix(b *strings.Builder, m *CorrMatrix) {
	header := append([]string{""}, columnNames(m.Columns)...)
	writeRow(b, header)
	writeRule(b, len(header))
	for i, c := range m.Columns {
		cells := []string{string(c)}
		for j := range m.Columns {
			cells = append(cells, corr(m.Values[i][j]))
		}
		writeRow(b, cells)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(c))
	}
	b.WriteString(" |\n")
}

func writeRule(b *strings.Builder, n int) {
	b.WriteString("|")
	for i := 0; i < n; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
}

func columnNames(cols []dataset.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

func num(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'g', 6, 64)
}

func corr(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'f', 3, 64)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
