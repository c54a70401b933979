// internal/catalog/schema.go
//
// Attribute schema for the catalog.
// Most attribute labels are categorical (present/absent). A few describe a
// magnitude (height, weight, age, bust) and are compared by value instead.
//
// Classification happens once in Build: every label is resolved into an
// Attribute carrying its Kind, numeric category and parsed value, so the
// comparison engine never re-parses labels per guess.

package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind tags an attribute label as categorical or numeric.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumeric     Kind = "numeric"
)

// NumericRule declares one numeric category.
// A label belongs to the category when it equals Category or starts with any
// of Prefixes. Tolerance is the absolute difference at or below which two
// values count as "close" (0 disables close verdicts).
type NumericRule struct {
	Category  string   `yaml:"category" json:"category"`
	Prefixes  []string `yaml:"prefixes" json:"prefixes"`
	Tolerance float64  `yaml:"tolerance" json:"tolerance"`
}

// Schema lists the numeric categories. Labels matching no rule are categorical.
type Schema struct {
	Numeric []NumericRule `yaml:"numeric" json:"numeric"`
}

// DefaultSchema covers the four magnitude categories the source data uses.
func DefaultSchema() Schema {
	return Schema{Numeric: []NumericRule{
		{Category: "身高", Prefixes: []string{"身高", "height:"}},
		{Category: "体重", Prefixes: []string{"体重", "weight:"}},
		{Category: "年龄", Prefixes: []string{"年龄", "age:"}},
		{Category: "胸围", Prefixes: []string{"胸围", "bust:"}},
	}}
}

// Attribute is a label resolved against the schema.
type Attribute struct {
	Label     string
	Kind      Kind
	Category  string  // numeric category; empty for categorical labels
	Value     float64 // first numeric token of Label, valid when HasValue
	HasValue  bool
	Tolerance float64
}

// Numeric reports whether the attribute is compared by magnitude.
func (a Attribute) Numeric() bool { return a.Kind == KindNumeric }

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// firstNumber extracts the first numeric token of s.
func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Resolve classifies a single label.
func (s Schema) Resolve(label string) Attribute {
	for _, rule := range s.Numeric {
		if !rule.matches(label) {
			continue
		}
		a := Attribute{Label: label, Kind: KindNumeric, Category: rule.Category, Tolerance: rule.Tolerance}
		a.Value, a.HasValue = firstNumber(label)
		return a
	}
	return Attribute{Label: label, Kind: KindCategorical}
}

func (r NumericRule) matches(label string) bool {
	if label == r.Category {
		return true
	}
	lower := strings.ToLower(label)
	for _, p := range r.Prefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
