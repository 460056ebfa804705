package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func TestAnalyzeMarkdown(t *testing.T) {
	tbl := mustTable(t, genderSample())
	opt := DefaultOptions()
	opt.SampleRows = 2
	rep, err := Analyze(tbl, opt)
	require.NoError(t, err)

	assert.Equal(t, 60, rep.Rows)
	assert.Len(t, rep.CrossTabs, len(DefaultCrossTabs))
	assert.Len(t, rep.Samples, 2)
	assert.Equal(t, "0", rep.Samples[0][0])

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"Rows: 60",
		"[KEY FINDINGS]",
		"[NUMERIC PROFILE]",
		"[CATEGORICAL PROFILE]",
		"[BY PRODUCT]",
		"[CONTINGENCY: Product x Gender]",
		"[CONDITIONAL PROBABILITIES]",
		"P(Product=KP781 | Gender=Female) = 0.100 (4/40)",
		"[CORRELATIONS]",
		"[OUTLIERS: 1.5 x IQR]",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in markdown, got:\n%s", want, md)
		}
	}
	if !strings.Contains(md, "undefined (no records with AgeBucket=55+)") {
		t.Fatalf("expected undefined conditional to be reported, got:\n%s", md)
	}
}

func TestAnalyzeYAML(t *testing.T) {
	tbl := mustTable(t, genderSample())
	rep, err := Analyze(tbl, DefaultOptions())
	require.NoError(t, err)

	out, err := rep.YAML()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, 60, doc["rows"])
	assert.Contains(t, doc, "profile")
	assert.Contains(t, doc, "outliers")
	assert.Contains(t, string(out), "flagged_ids")
	assert.Contains(t, string(out), ".nan")
}

func TestAnalyzeCustomCrossTabs(t *testing.T) {
	tbl := mustTable(t, genderSample())
	opt := DefaultOptions()
	opt.CrossTabs = [][2]string{{"Gender", "MaritalStatus"}}
	rep, err := Analyze(tbl, opt)
	require.NoError(t, err)
	require.Len(t, rep.CrossTabs, 1)
	assert.Equal(t, "Gender", rep.CrossTabs[0].RowDim)

	opt.CrossTabs = [][2]string{{"Gender", "Height"}}
	_, err = Analyze(tbl, opt)
	assert.Error(t, err)
}

func TestAnalyzeNotesEmptyProduct(t *testing.T) {
	tbl := mustTable(t, []dataset.PurchaseRecord{
		rec(dataset.KP281, dataset.Male, 20, 30000),
		rec(dataset.KP281, dataset.Female, 30, 45000),
		rec(dataset.KP281, dataset.Female, 30, 45000),
	})
	rep, err := Analyze(tbl, DefaultOptions())
	require.NoError(t, err)
	notes := strings.Join(rep.Warnings, "\n")
	assert.Contains(t, notes, "no records for product KP481")
	assert.Contains(t, notes, "1 duplicate record(s)")
}
