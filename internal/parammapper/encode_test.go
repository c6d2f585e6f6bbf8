package parammapper

import (
	"testing"

	"github.com/icarus-sh/icarus-bridge/internal/idl"
)

func TestEncodePositionalProducesSeparateArguments(t *testing.T) {
	t.Parallel()

	desc := Descriptor{Style: StylePositional, Params: []Param{
		{Name: "key", WireType: "text"},
		{Name: "content", WireType: "text"},
	}}
	got, err := Encode(desc, map[string]any{"key": "k1", "content": "hello"}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want, err := idl.EncodeArgs([]idl.Arg{
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("k1")},
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("hello")},
	})
	if err != nil {
		t.Fatalf("EncodeArgs() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Encode() = %x, want %x", got, want)
	}
}

func TestEncodeMissingKeyUsesZeroValue(t *testing.T) {
	t.Parallel()

	desc := Descriptor{Style: StylePositional, Params: []Param{
		{Name: "key", WireType: "text"},
		{Name: "content", WireType: "text"},
	}}
	got, err := Encode(desc, map[string]any{"key": "k1"}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want, err := idl.EncodeArgs([]idl.Arg{
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("k1")},
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("")},
	})
	if err != nil {
		t.Fatalf("EncodeArgs() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Encode() = %x, want %x (missing key as empty text)", got, want)
	}
}

func TestEncodeMissingNumericKeyIsZero(t *testing.T) {
	t.Parallel()

	desc := Descriptor{Style: StylePositional, Params: []Param{{Name: "n", WireType: "nat64"}}}
	got, err := Encode(desc, map[string]any{}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want, _ := idl.EncodeArgs([]idl.Arg{{Type: idl.Type{Kind: idl.KindNat64}, Value: idl.NatFromUint64(0)}})
	if string(got) != string(want) {
		t.Errorf("Encode() = %x, want zero nat64 %x", got, want)
	}
}

func TestEncodeEmptyStyleIgnoresArgs(t *testing.T) {
	t.Parallel()

	got, err := Encode(Descriptor{Style: StyleEmpty}, map[string]any{"anything": true}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want, _ := idl.EncodeArgs(nil)
	if string(got) != string(want) {
		t.Errorf("Encode() = %x, want unit encoding %x", got, want)
	}
}

func TestEncodeTooManyPositionalArgumentsFails(t *testing.T) {
	t.Parallel()

	params := make([]Param, MaxPositionalArity)
	args := map[string]any{}
	for i := range params {
		name := string(rune('a' + i))
		params[i] = Param{Name: name, WireType: "text"}
		args[name] = "v"
	}
	desc := Descriptor{Style: StylePositional, Params: params}

	if _, err := Encode(desc, args, false); err == nil {
		t.Fatal("Encode() expected too-many-parameters error")
	}
}

func TestEncodeRecordStyleEmitsJSONText(t *testing.T) {
	t.Parallel()

	got, err := Encode(Descriptor{Style: StyleRecord}, map[string]any{"a": float64(1), "b": true}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	values, err := idl.DecodeArgs(got)
	if err != nil {
		t.Fatalf("DecodeArgs() error = %v", err)
	}
	if len(values) != 1 || values[0].Kind != idl.KindText {
		t.Fatalf("Record encoding = %+v, want single text arg", values)
	}
	if values[0].Text != `{"a":1,"b":true}` {
		t.Errorf("Record JSON text = %q", values[0].Text)
	}
}

func TestEncodeOptPresentAndAbsent(t *testing.T) {
	t.Parallel()

	desc := Descriptor{Style: StylePositional, Params: []Param{{Name: "n", WireType: "opt text"}}}

	withValue, err := Encode(desc, map[string]any{"n": "hi"}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	values, err := idl.DecodeArgs(withValue)
	if err != nil || len(values) != 1 || values[0].Elem == nil || values[0].Elem.Text != "hi" {
		t.Fatalf("opt present decode = %+v, err=%v", values, err)
	}

	absent, err := Encode(desc, map[string]any{}, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	values, err = idl.DecodeArgs(absent)
	if err != nil || len(values) != 1 || values[0].Elem != nil {
		t.Fatalf("opt absent decode = %+v, err=%v, want None", values, err)
	}
}
