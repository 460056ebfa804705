package analysis

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/KaramelBytes/aerofit-cli/internal/dataset"
)

func rec(p dataset.Product, g dataset.Gender, age int, income float64) dataset.PurchaseRecord {
	return dataset.PurchaseRecord{
		Product: p, Age: age, Gender: g, Education: 16, MaritalStatus: dataset.Single,
		Usage: 3, Fitness: 3, Income: income, Miles: 100,
	}
}

func mustTable(t testing.TB, recs []dataset.PurchaseRecord) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable("test", recs)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	t.Cleanup(tbl.Release)
	return tbl
}

// genderSample has 40 female buyers (4 on KP781) and 20 male buyers, all younger than 55.
func genderSample() []dataset.PurchaseRecord {
	var recs []dataset.PurchaseRecord
	for i := 0; i < 40; i++ {
		p := dataset.KP281
		switch {
		case i < 4:
			p = dataset.KP781
		case i < 20:
			p = dataset.KP481
		}
		recs = append(recs, rec(p, dataset.Female, 20+i%30, 30000+float64(i)*1000))
	}
	for i := 0; i < 20; i++ {
		p := dataset.KP281
		if i%2 == 0 {
			p = dataset.KP781
		}
		recs = append(recs, rec(p, dataset.Male, 25+i, 50000+float64(i)*2500))
	}
	return recs
}

func recordGen() *rapid.Generator[dataset.PurchaseRecord] {
	return rapid.Custom(func(t *rapid.T) dataset.PurchaseRecord {
		return dataset.PurchaseRecord{
			Product:       rapid.SampledFrom(dataset.Products).Draw(t, "product"),
			Age:           rapid.IntRange(18, 80).Draw(t, "age"),
			Gender:        rapid.SampledFrom(dataset.Genders).Draw(t, "gender"),
			Education:     rapid.IntRange(10, 22).Draw(t, "education"),
			MaritalStatus: rapid.SampledFrom(dataset.MaritalStatuses).Draw(t, "marital"),
			Usage:         rapid.IntRange(0, 7).Draw(t, "usage"),
			Fitness:       rapid.IntRange(1, 5).Draw(t, "fitness"),
			Income:        float64(rapid.IntRange(0, 200).Draw(t, "income")) * 1000,
			Miles:         float64(rapid.IntRange(0, 400).Draw(t, "miles")),
		}
	})
}
