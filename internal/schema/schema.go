// Package schema defines the shape of the company data aggregate and the
// repair pass that fills in missing or corrupted sections from defaults.
package schema

import (
	"math"
	"strconv"
	"strings"
)

// Document is the root company data aggregate, kept as a generic JSON tree.
// Object sections decode as map[string]any, list sections as []any.
type Document = map[string]any

// Kind classifies a top-level section's expected container shape.
type Kind int

const (
	KindObject Kind = iota
	KindList
)

// Section describes one top-level key of the document.
type Section struct {
	Key  string
	Kind Kind
}

// Sections lists the nine top-level keys in display order.
var Sections = []Section{
	{Key: "overview", Kind: KindObject},
	{Key: "financials", Kind: KindObject},
	{Key: "team", Kind: KindObject},
	{Key: "market", Kind: KindObject},
	{Key: "product", Kind: KindObject},
	{Key: "legal", Kind: KindObject},
	{Key: "funding", Kind: KindObject},
	{Key: "metrics", Kind: KindList},
	{Key: "documents", Kind: KindList},
	{Key: "users", Kind: KindList},
}

// NumericFinancialFields are the ledger fields of the financials section that
// must always hold finite numbers.
var NumericFinancialFields = map[string]struct{}{
	"revenue":           {},
	"cogs":              {},
	"grossProfit":       {},
	"operatingExpenses": {},
	"netIncome":         {},
	"operatingCashFlow": {},
	"investingCashFlow": {},
	"financingCashFlow": {},
	"netCashFlow":       {},
	"cashBalance":       {},
}

// Repair validates the top-level shape of a loaded document and replaces any
// missing or mistyped section wholesale with the corresponding default. It is
// a pure function and idempotent; nested corruption inside an otherwise
// well-shaped section is left alone.
func Repair(raw any, defaults Document) Document {
	root, ok := raw.(map[string]any)
	if !ok {
		return Clone(defaults)
	}

	repaired := make(Document, len(Sections))
	for _, section := range Sections {
		value, present := root[section.Key]
		if present && shapeOK(value, section.Kind) {
			repaired[section.Key] = value
			continue
		}
		repaired[section.Key] = defaults[section.Key]
	}
	return repaired
}

func shapeOK(value any, kind Kind) bool {
	switch kind {
	case KindList:
		_, ok := value.([]any)
		return ok
	default:
		_, ok := value.(map[string]any)
		return ok
	}
}

// Clone deep-copies a document tree. Scalars are shared, containers are not.
func Clone(doc Document) Document {
	copied, _ := cloneValue(doc).(map[string]any)
	return copied
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// CoerceNumber turns edit input for a numeric ledger field into a finite
// float64, defaulting to 0 on anything unparseable.
func CoerceNumber(value any) float64 {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
