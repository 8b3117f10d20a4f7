package schema

import (
	"reflect"
	"testing"
)

func TestRepairFillsMissingSections(t *testing.T) {
	defaults := Default()
	for _, section := range Sections {
		t.Run(section.Key, func(t *testing.T) {
			input := Default()
			delete(input, section.Key)

			repaired := Repair(input, defaults)

			if !reflect.DeepEqual(repaired[section.Key], defaults[section.Key]) {
				t.Fatalf("expected section %q replaced with default", section.Key)
			}
		})
	}
}

func TestRepairReplacesMistypedSections(t *testing.T) {
	defaults := Default()
	cases := []struct {
		name string
		key  string
		bad  any
	}{
		{name: "object section as string", key: "overview", bad: "nope"},
		{name: "object section as list", key: "financials", bad: []any{1.0}},
		{name: "list section as object", key: "metrics", bad: map[string]any{"label": "x"}},
		{name: "list section as scalar", key: "documents", bad: 42.0},
		{name: "list section as nil", key: "users", bad: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := Default()
			input[tc.key] = tc.bad

			repaired := Repair(input, defaults)

			if !reflect.DeepEqual(repaired[tc.key], defaults[tc.key]) {
				t.Fatalf("expected section %q forced back to default", tc.key)
			}
		})
	}
}

func TestRepairKeepsWellShapedSections(t *testing.T) {
	defaults := Default()
	input := Default()
	overview := input["overview"].(map[string]any)
	overview["name"] = "Acme"

	repaired := Repair(input, defaults)

	got := repaired["overview"].(map[string]any)
	if got["name"] != "Acme" {
		t.Fatalf("expected edited overview preserved, got %v", got["name"])
	}
}

func TestRepairNonObjectRootFallsBackToDefaults(t *testing.T) {
	defaults := Default()
	for _, raw := range []any{nil, "garbage", []any{1.0}, 7.0} {
		repaired := Repair(raw, defaults)
		if !reflect.DeepEqual(repaired, defaults) {
			t.Fatalf("expected full default document for root %v", raw)
		}
	}
}

func TestRepairIdempotent(t *testing.T) {
	defaults := Default()
	input := map[string]any{
		"overview": map[string]any{"name": "Acme"},
		"metrics":  "corrupt",
		"team":     []any{"wrong shape"},
	}

	once := Repair(input, defaults)
	twice := Repair(once, defaults)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("repair is not idempotent")
	}
	for _, section := range Sections {
		if _, ok := once[section.Key]; !ok {
			t.Fatalf("section %q missing after repair", section.Key)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := Default()
	copied := Clone(original)

	copied["overview"].(map[string]any)["name"] = "Changed"
	docs := copied["documents"].([]any)
	docs[0].(map[string]any)["name"] = "Changed.pdf"

	if original["overview"].(map[string]any)["name"] != "DataVault" {
		t.Fatalf("clone shares overview map with original")
	}
	if original["documents"].([]any)[0].(map[string]any)["name"] == "Changed.pdf" {
		t.Fatalf("clone shares document entries with original")
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "float", input: 42.5, want: 42.5},
		{name: "int", input: 7, want: 7},
		{name: "numeric string", input: "480000", want: 480000},
		{name: "padded string", input: " -98400.5 ", want: -98400.5},
		{name: "garbage string", input: "abc", want: 0},
		{name: "empty string", input: "", want: 0},
		{name: "nil", input: nil, want: 0},
		{name: "bool", input: true, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CoerceNumber(tc.input); got != tc.want {
				t.Fatalf("CoerceNumber(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
