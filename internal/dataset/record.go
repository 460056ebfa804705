package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names a field of a PurchaseRecord as it appears in input headers.
type Column string

const (
	ColProduct       Column = "Product"
	ColAge           Column = "Age"
	ColGender        Column = "Gender"
	ColEducation     Column = "Education"
	ColMaritalStatus Column = "MaritalStatus"
	ColUsage         Column = "Usage"
	ColFitness       Column = "Fitness"
	ColIncome        Column = "Income"
	ColMiles         Column = "Miles"
)

// RequiredColumns lists every column a source must carry, in canonical order.
var RequiredColumns = []Column{
	ColProduct, ColAge, ColGender, ColEducation, ColMaritalStatus,
	ColUsage, ColFitness, ColIncome, ColMiles,
}

// NumericColumns are profiled with quantiles and enter the correlation matrix.
var NumericColumns = []Column{ColAge, ColEducation, ColUsage, ColFitness, ColIncome, ColMiles}

// CategoricalColumns are profiled with frequency tables.
var CategoricalColumns = []Column{ColProduct, ColGender, ColMaritalStatus}

// IsNumeric reports whether c holds numbers.
func (c Column) IsNumeric() bool {
	for _, n := range NumericColumns {
		if n == c {
			return true
		}
	}
	return false
}

// Product is the purchased treadmill model.
type Product string

const (
	KP281 Product = "KP281"
	KP481 Product = "KP481"
	KP781 Product = "KP781"
)

// Products in catalogue order (entry, mid, advanced).
var Products = []Product{KP281, KP481, KP781}

// ParseProduct accepts model codes in any case and with embedded whitespace ("kp 281").
func ParseProduct(s string) (Product, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	for _, p := range Products {
		if string(p) == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown product %q", s)
}

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

var Genders = []Gender{Male, Female}

func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

type MaritalStatus string

const (
	Single    MaritalStatus = "Single"
	Partnered MaritalStatus = "Partnered"
)

var MaritalStatuses = []MaritalStatus{Single, Partnered}

func ParseMaritalStatus(s string) (MaritalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "partnered":
		return Partnered, nil
	}
	return "", fmt.Errorf("unknown marital status %q", s)
}

// PurchaseRecord is one customer purchase. ID is the zero-based position in the loaded table.
type PurchaseRecord struct {
	ID            int           `yaml:"id"`
	Product       Product       `yaml:"product"`
	Age           int           `yaml:"age"`
	Gender        Gender        `yaml:"gender"`
	Education     int           `yaml:"education"`
	MaritalStatus MaritalStatus `yaml:"marital_status"`
	Usage         int           `yaml:"usage"`
	Fitness       int           `yaml:"fitness"`
	Income        float64       `yaml:"income"`
	Miles         float64       `yaml:"miles"`
}

// Value returns the numeric value of c, or 0 for categorical columns.
func (r PurchaseRecord) Value(c Column) float64 {
	switch c {
	case ColAge:
		return float64(r.Age)
	case ColEducation:
		return float64(r.Education)
	case ColUsage:
		return float64(r.Usage)
	case ColFitness:
		return float64(r.Fitness)
	case ColIncome:
		return r.Income
	case ColMiles:
		return r.Miles
	}
	return 0
}

// Label renders the value of c as text.
func (r PurchaseRecord) Label(c Column) string {
	switch c {
	case ColProduct:
		return string(r.Product)
	case ColGender:
		return string(r.Gender)
	case ColMaritalStatus:
		return string(r.MaritalStatus)
	case ColIncome, ColMiles:
		return strconv.FormatFloat(r.Value(c), 'f', -1, 64)
	}
	return strconv.Itoa(int(r.Value(c)))
}

// Fields returns the record as strings in RequiredColumns order.
func (r PurchaseRecord) Fields() []string {
	out := make([]string, len(RequiredColumns))
	for i, c := range RequiredColumns {
		out[i] = r.Label(c)
	}
	return out
}

// Check verifies the record invariants and names the first offending column.
func (r PurchaseRecord) Check() (Column, error) {
	switch {
	case r.Product != KP281 && r.Product != KP481 && r.Product != KP781:
		return ColProduct, fmt.Errorf("unknown product %q", r.Product)
	case r.Age <= 0:
		return ColAge, errors.New("must be a positive integer")
	case r.Gender != Male && r.Gender != Female:
		return ColGender, fmt.Errorf("unknown gender %q", r.Gender)
	case r.Education <= 0:
		return ColEducation, errors.New("must be a positive integer")
	case r.MaritalStatus != Single && r.MaritalStatus != Partnered:
		return ColMaritalStatus, fmt.Errorf("unknown marital status %q", r.MaritalStatus)
	case r.Usage < 0:
		return ColUsage, errors.New("must be non-negative")
	case r.Fitness < 1 || r.Fitness > 5:
		return ColFitness, errors.New("must be between 1 and 5")
	case r.Income < 0:
		return ColIncome, errors.New("must be non-negative")
	case r.Miles < 0:
		return ColMiles, errors.New("must be non-negative")
	}
	return "", nil
}
