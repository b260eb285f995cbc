package wire

import (
	"testing"

	"bomgen/internal/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := value.NewRecord(map[string]value.Value{
		"cost":   value.Number{V: 12.5},
		"active": value.Boolean{V: true},
		"name":   value.Text{V: "widget"},
		"tags":   value.List{V: []value.Value{value.Text{V: "a"}, value.Text{V: "b"}}},
	})
	doc, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec, ok := decoded.(value.Record)
	if !ok {
		t.Fatalf("got %#v, want Record", decoded)
	}
	if rec.V["cost"].(value.Number).V != 12.5 {
		t.Fatalf("cost = %#v", rec.V["cost"])
	}
	if !rec.V["active"].(value.Boolean).V {
		t.Fatalf("active = %#v", rec.V["active"])
	}
	if rec.V["name"].(value.Text).V != "widget" {
		t.Fatalf("name = %#v", rec.V["name"])
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		v    value.Value
		want ValueType
	}{
		{value.Number{V: 1}, TypeNumber},
		{value.Boolean{V: true}, TypeBoolean},
		{value.Text{V: "x"}, TypeText},
		{value.List{}, TypeArray},
		{value.NewRecord(nil), TypeObject},
		{value.Null{}, TypeText},
	}
	for _, c := range cases {
		if got := Classify(c.v); got != c.want {
			t.Errorf("Classify(%#v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if _, err := Decode("{not json"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEncodeRecordKeyContainingDotStaysOneField(t *testing.T) {
	v := value.NewRecord(map[string]value.Value{
		"length.mm": value.Number{V: 25},
	})
	doc, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec, ok := decoded.(value.Record)
	if !ok {
		t.Fatalf("got %#v, want Record", decoded)
	}
	num, ok := rec.V["length.mm"].(value.Number)
	if !ok {
		t.Fatalf(`Record has no literal "length.mm" key (nested instead?): %#v`, rec.V)
	}
	if num.V != 25 {
		t.Fatalf(`rec.V["length.mm"] = %v, want 25`, num.V)
	}
}
