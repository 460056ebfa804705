// Package charts renders the case-study figures as PNG files with gonum/plot.
package charts

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/aerofit-cli/internal/analysis"
	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

// Options controls the size of rendered figures.
type Options struct {
	Width  vg.Length
	Height vg.Length
	// Only restricts rendering to the named charts; empty renders all.
	Only []string
}

// DefaultOptions renders 8x5 inch figures.
func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

// Inches converts a size in inches to a plot length.
func Inches(x float64) vg.Length { return vg.Length(x) * vg.Inch }

type chart struct {
	name  string
	build func(t *dataset.Table, rep *analysis.Report) (*plot.Plot, error)
}

var charts = []chart{
	{"product_distribution", productDistribution},
	{"income_by_product", func(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
		return boxByProduct(t, dataset.ColIncome, "Income by product")
	}},
	{"usage_by_product", func(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
		return boxByProduct(t, dataset.ColUsage, "Weekly usage by product")
	}},
	{"miles_vs_usage", milesVsUsage},
	{"usage_hist", usageHistogram},
	{"product_gender", productByGender},
	{"education_product_share", educationShare},
	{"correlation_heatmap", correlationHeatmap},
}

// Names lists the available charts in render order.
func Names() []string {
	out := make([]string, len(charts))
	for i, c := range charts {
		out[i] = c.name
	}
	return out
}

// RenderAll writes the selected charts into dir and returns the written paths.
func RenderAll(t *dataset.Table, rep *analysis.Report, dir string, opt Options) ([]string, error) {
	if opt.Width == 0 || opt.Height == 0 {
		def := DefaultOptions()
		opt.Width, opt.Height = def.Width, def.Height
	}
	selected, err := selectCharts(opt.Only)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create figures dir: %w", err)
	}
	var paths []string
	for _, c := range selected {
		p, err := c.build(t, rep)
		if err != nil {
			return paths, fmt.Errorf("chart %s: %w", c.name, err)
		}
		path := filepath.Join(dir, c.name+".png")
		if err := p.Save(opt.Width, opt.Height, path); err != nil {
			return paths, fmt.Errorf("save chart %s: %w", c.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func selectCharts(only []string) ([]chart, error) {
	if len(only) == 0 {
		return charts, nil
	}
	var out []chart
	for _, name := range only {
		found := false
		for _, c := range charts {
			if strings.EqualFold(c.name, strings.TrimSpace(name)) {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown chart %q (available: %s)", name, strings.Join(Names(), ", "))
		}
	}
	return out, nil
}

func productDistribution(t *dataset.Table, rep *analysis.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Product distribution"
	p.Y.Label.Text = "Buyers"
	counts := make(plotter.Values, len(dataset.Products))
	for _, g := range rep.Profile.Groups {
		for i, prod := range dataset.Products {
			if g.Product == prod {
				counts[i] = float64(g.Count)
			}
		}
	}
	bars, err := plotter.NewBarChart(counts, vg.Points(40))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(productLabels()...)
	return p, nil
}

func boxByProduct(t *dataset.Table, col dataset.Column, title string) (*plot.Plot, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = string(col)
	var names []string
	for _, part := range analysis.ByProduct(t) {
		if part.IDs.IsEmpty() {
			continue
		}
		group := make(plotter.Values, 0, part.Size())
		it := part.IDs.Iterator()
		for it.HasNext() {
			group = append(group, vals[it.Next()])
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(len(names)), group)
		if err != nil {
			return nil, err
		}
		box.FillColor = plotutil.Color(len(names))
		p.Add(box)
		names = append(names, string(part.Product))
	}
	p.NominalX(names...)
	return p, nil
}

func milesVsUsage(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Miles vs weekly usage"
	p.X.Label.Text = "Usage"
	p.Y.Label.Text = "Miles"
	for i, part := range analysis.ByProduct(t) {
		if part.IDs.IsEmpty() {
			continue
		}
		xys := make(plotter.XYs, 0, part.Size())
		it := part.IDs.Iterator()
		for it.HasNext() {
			r := t.Record(int(it.Next()))
			xys = append(xys, plotter.XY{X: float64(r.Usage), Y: r.Miles})
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(s)
		p.Legend.Add(string(part.Product), s)
	}
	p.Legend.Top = true
	return p, nil
}

func usageHistogram(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
	vals, err := t.Column(dataset.ColUsage)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = "Weekly usage"
	p.X.Label.Text = "Usage"
	p.Y.Label.Text = "Buyers"
	if len(vals) == 0 {
		return p, nil
	}
	h, err := plotter.NewHist(plotter.Values(vals), 7)
	if err != nil {
		return nil, err
	}
	h.FillColor = plotutil.Color(2)
	p.Add(h)
	return p, nil
}

func productByGender(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
	ct, err := analysis.CrossTab(t, "Product", "Gender")
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = "Product by gender"
	p.Y.Label.Text = "Buyers"
	w := vg.Points(20)
	for j, g := range ct.Cols {
		vals := make(plotter.Values, len(ct.Rows))
		for i := range ct.Rows {
			vals[i] = float64(ct.Counts[i][j])
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return nil, err
		}
		bars.Color = plotutil.Color(j)
		bars.Offset = w * vg.Length(2*j-len(ct.Cols)+1) / 2
		p.Add(bars)
		p.Legend.Add(g, bars)
	}
	p.Legend.Top = true
	p.NominalX(ct.Rows...)
	return p, nil
}

func educationShare(t *dataset.Table, _ *analysis.Report) (*plot.Plot, error) {
	ct, err := analysis.CrossTab(t, "Product", "Education")
	if err != nil {
		return nil, err
	}
	share := ct.ColNormalized()
	p := plot.New()
	p.Title.Text = "Product share by education (years)"
	p.Y.Label.Text = "Share"
	var below *plotter.BarChart
	for i, prod := range ct.Rows {
		vals := make(plotter.Values, len(ct.Cols))
		for j := range ct.Cols {
			if v := share[i][j]; !math.IsNaN(v) {
				vals[j] = v
			}
		}
		if len(vals) == 0 {
			break
		}
		bars, err := plotter.NewBarChart(vals, vg.Points(18))
		if err != nil {
			return nil, err
		}
		bars.Color = plotutil.Color(i)
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		p.Legend.Add(prod, bars)
	}
	p.Legend.Top = true
	p.NominalX(ct.Cols...)
	return p, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. NaN cells render as 0.
type corrGrid struct{ m *analysis.CorrMatrix }

func (g corrGrid) Dims() (c, r int) { return len(g.m.Columns), len(g.m.Columns) }
func (g corrGrid) X(c int) float64  { return float64(c) }
func (g corrGrid) Y(r int) float64  { return float64(r) }
func (g corrGrid) Z(c, r int) float64 {
	v := g.m.Values[r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func correlationHeatmap(_ *dataset.Table, rep *analysis.Report) (*plot.Plot, error) {
	if rep.Corr == nil {
		return nil, fmt.Errorf("report has no correlation matrix")
	}
	p := plot.New()
	p.Title.Text = "Correlation heatmap"
	h := plotter.NewHeatMap(corrGrid{rep.Corr}, palette.Heat(12, 1))
	h.Min, h.Max = -1, 1
	p.Add(h)
	names := make([]string, len(rep.Corr.Columns))
	for i, c := range rep.Corr.Columns {
		names[i] = string(c)
	}
	p.NominalX(names...)
	p.NominalY(names...)
	return p, nil
}

func productLabels() []string {
	out := make([]string, len(dataset.Products))
	for i, p := range dataset.Products {
		out[i] = string(p)
	}
	return out
}
