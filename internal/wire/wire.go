// Package wire is the JSON boundary for internal/value.Value: encoding
// values for an HTTP/CLI response, decoding inbound context payloads, and
// classifying a value's wire-visible "value_type" (spec.md §6).
//
// This package is adapted from the teacher's internal/jsonvalue package
// (a hand-rolled, kind-tagged JSON tree used so DWScript's JSON builtin
// never leans on interface{}); here the same kind-tagged-tree idea is
// retargeted at internal/value.Value and built on top of
// tidwall/gjson (decode) and tidwall/sjson (encode) rather than
// encoding/json, since those are the JSON libraries this corpus favors
// for inbound/outbound wire shapes.
package wire

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"bomgen/internal/value"
)

// ValueType classifies a Value the way an external API consumer sees it
// (spec.md §6's value_type field on an evaluation response).
type ValueType string

const (
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeText    ValueType = "text"
	TypeArray   ValueType = "array"
	TypeObject  ValueType = "object"
	TypeNull    ValueType = "null"
)

// Classify returns the wire value_type for v. Null has no value_type of
// its own and classifies as text.
func Classify(v value.Value) ValueType {
	if _, ok := v.(value.Null); ok {
		return TypeText
	}
	return ValueType(v.Kind())
}

// Encode renders v as a JSON document. Scalars render directly; Lists and
// Records are built incrementally with tidwall/sjson.SetRaw so nesting
// never needs an intermediate map[string]interface{} tree.
func Encode(v value.Value) (string, error) {
	switch tv := v.(type) {
	case value.Number:
		return strconv.FormatFloat(tv.V, 'g', -1, 64), nil
	case value.Boolean:
		if tv.V {
			return "true", nil
		}
		return "false", nil
	case value.Text:
		return strconv.Quote(tv.V), nil
	case value.Null:
		return "null", nil
	case value.List:
		doc := "[]"
		for i, item := range tv.V {
			itemDoc, err := Encode(item)
			if err != nil {
				return "", err
			}
			var err2 error
			doc, err2 = sjson.SetRaw(doc, fmt.Sprintf("%d", i), itemDoc)
			if err2 != nil {
				return "", err2
			}
		}
		return doc, nil
	case value.Record:
		doc := "{}"
		keys := make([]string, 0, len(tv.V))
		for k := range tv.V {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			itemDoc, err := Encode(tv.V[k])
			if err != nil {
				return "", err
			}
			var err2 error
			doc, err2 = sjson.SetRaw(doc, escapePathKey(k), itemDoc)
			if err2 != nil {
				return "", err2
			}
		}
		return doc, nil
	default:
		return "", fmt.Errorf("wire: cannot encode value of kind %q", v.Kind())
	}
}

// escapePathKey escapes the sjson path metacharacters (".", "*", "?",
// "\") in a Record field name so it is set as one literal object key
// instead of being parsed as a nested path — a lookup column named
// "length.mm" must round-trip as {"length.mm": ...}, not
// {"length":{"mm":...}}.
func escapePathKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '.', '*', '?', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Decode parses a JSON document into a Value tree, using gjson so object
// key order in the source document is irrelevant (Records are
// unordered maps; spec.md never depends on wire-level key order).
func Decode(doc string) (value.Value, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("wire: invalid JSON document")
	}
	return fromResult(gjson.Parse(doc)), nil
}

func fromResult(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null{}
	case gjson.False:
		return value.Boolean{V: false}
	case gjson.True:
		return value.Boolean{V: true}
	case gjson.Number:
		return value.Number{V: r.Num}
	case gjson.String:
		return value.Text{V: r.Str}
	case gjson.JSON:
		if r.IsArray() {
			var items []value.Value
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromResult(item))
				return true
			})
			return value.List{V: items}
		}
		m := make(map[string]value.Value)
		r.ForEach(func(key, item gjson.Result) bool {
			m[key.String()] = fromResult(item)
			return true
		})
		return value.NewRecord(m)
	default:
		return value.Null{}
	}
}
