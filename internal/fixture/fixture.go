// Package fixture loads formula evaluation scenarios from YAML (or JSON)
// fixture files for use by tests and the "bomgen eval --fixture" CLI
// subcommand. Fixtures describe a Context in a document-friendly shape;
// Scenario.Context converts that shape into the internal/formula.Context
// the evaluator actually consumes.
//
// Grounded on the teacher's internal/interp/fixture_test.go, which drives
// interpreter test cases from on-disk fixture documents.
package fixture

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"bomgen/internal/formula"
	"bomgen/internal/value"
)

// VariableSpec is a Variable as it appears in a fixture document.
type VariableSpec struct {
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type,omitempty"`
	Formula  string      `yaml:"formula,omitempty"`
	Value    interface{} `yaml:"value,omitempty"`
	HasValue bool        `yaml:"-"`
}

// LookupRowSpec is one row of a LookupTableSpec.
type LookupRowSpec struct {
	Key    float64                `yaml:"key"`
	Values map[string]interface{} `yaml:"values"`
}

// LookupTableSpec is a LookupTable as it appears in a fixture document.
type LookupTableSpec struct {
	Rows []LookupRowSpec `yaml:"rows"`
}

// Scenario is one formula evaluation test case: a context plus a formula
// to run against it and (optionally) the expected result, for use by
// golden/snapshot tests.
type Scenario struct {
	Name         string                     `yaml:"name"`
	Formula      string                     `yaml:"formula"`
	Inputs       map[string]interface{}     `yaml:"inputs,omitempty"`
	Config       map[string]interface{}     `yaml:"config,omitempty"`
	Variables    []VariableSpec             `yaml:"variables,omitempty"`
	Rows         map[string]map[string]interface{} `yaml:"rows,omitempty"`
	LookupTables map[string]LookupTableSpec `yaml:"lookup_tables,omitempty"`
	ExpectError  string                     `yaml:"expect_error,omitempty"`
	Expect       interface{}                `yaml:"expect,omitempty"`
}

// Document is a fixture file: a named set of scenarios sharing one file.
type Document struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load parses a fixture document from YAML bytes.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: parse: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and parses a fixture document from path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Load(data)
}

// Context converts s into the normalized formula.Context the evaluator
// consumes (spec.md §6 intake).
func (s Scenario) Context() *formula.Context {
	raw := formula.RawContext{
		Inputs: convertMap(s.Inputs),
		Config: convertMap(s.Config),
		Rows:   make(map[string]map[string]value.Value, len(s.Rows)),
	}
	for rowID, fields := range s.Rows {
		raw.Rows[rowID] = convertMap(fields)
	}
	if len(s.Variables) > 0 {
		raw.Variables = make([]formula.Variable, len(s.Variables))
		for i, vs := range s.Variables {
			v := formula.Variable{
				Name:         vs.Name,
				DeclaredType: formula.VariableType(vs.Type),
			}
			if vs.Formula != "" {
				v.HasFormula = true
				v.Formula = vs.Formula
			} else {
				v.Value = convertScalar(vs.Value)
			}
			raw.Variables[i] = v
		}
	}
	if len(s.LookupTables) > 0 {
		raw.LookupTables = make(map[string]formula.LookupTable, len(s.LookupTables))
		for name, tbl := range s.LookupTables {
			rows := make([]formula.LookupRow, len(tbl.Rows))
			for i, r := range tbl.Rows {
				rows[i] = formula.LookupRow{Key: r.Key, Values: convertMap(r.Values)}
			}
			raw.LookupTables[name] = formula.LookupTable{Name: name, Rows: rows}
		}
	}
	return formula.NewContext(raw)
}

func convertMap(m map[string]interface{}) map[string]value.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = convertScalar(v)
	}
	return out
}

// convertScalar maps a YAML-decoded Go value (float64/int/string/bool/nil,
// or nested slices/maps) onto internal/value.Value.
func convertScalar(v interface{}) value.Value {
	switch tv := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Boolean{V: tv}
	case string:
		return value.Text{V: tv}
	case int:
		return value.Number{V: float64(tv)}
	case int64:
		return value.Number{V: float64(tv)}
	case float64:
		return value.Number{V: tv}
	case uint64:
		return value.Number{V: float64(tv)}
	case []interface{}:
		items := make([]value.Value, len(tv))
		for i, item := range tv {
			items[i] = convertScalar(item)
		}
		return value.List{V: items}
	case map[string]interface{}:
		return value.NewRecord(convertMap(tv))
	default:
		return value.Text{V: fmt.Sprintf("%v", tv)}
	}
}
