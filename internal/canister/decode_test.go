package canister

import (
	"math/big"
	"testing"

	"github.com/icarus-sh/icarus-bridge/internal/idl"
)

func encodeOrFatal(t *testing.T, args []idl.Arg) []byte {
	t.Helper()
	b, err := idl.EncodeArgs(args)
	if err != nil {
		t.Fatalf("EncodeArgs() error = %v", err)
	}
	return b
}

func TestDecodeEmptyReplyIsNull(t *testing.T) {
	t.Parallel()

	reply := encodeOrFatal(t, nil)
	got, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != nil {
		t.Errorf("Decode() = %v, want nil", got)
	}
}

func TestDecodeTextRoundTrip(t *testing.T) {
	t.Parallel()

	reply := encodeOrFatal(t, []idl.Arg{{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("hello")}})
	got, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Decode() = %v, want %q", got, "hello")
	}
}

func TestDecodeIntWithinI64(t *testing.T) {
	t.Parallel()

	reply := encodeOrFatal(t, []idl.Arg{{Type: idl.Type{Kind: idl.KindNat64}, Value: idl.FixedWidth(idl.KindNat64, big.NewInt(42))}})
	got, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != int64(42) {
		t.Errorf("Decode() = %v (%T), want int64(42)", got, got)
	}
}

func TestDecodeRejectsMultipleArgs(t *testing.T) {
	t.Parallel()

	reply := encodeOrFatal(t, []idl.Arg{
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("a")},
		{Type: idl.Type{Kind: idl.KindText}, Value: idl.Text("b")},
	})
	if _, err := Decode(reply); err == nil {
		t.Fatal("Decode() expected error for multi-argument reply")
	}
}

// okErrVariantReply hand-assembles a DIDL argument list for a single
// `variant { Ok : text; Err : text }` value, selecting whichever of the two
// fields okBranch names. idl.EncodeArgs only registers primitive/Opt/Vec
// types (see registerType), so a real Ok/Err-shaped reply can't be built
// through it; this fixture goes around that by writing the wire bytes
// directly, the way an actual canister reply would arrive.
func okErrVariantReply(t *testing.T, okBranch bool, text string) []byte {
	t.Helper()

	buf := []byte("DIDL")
	buf = append(buf, 0x01)                   // 1 type table entry
	buf = append(buf, 0x6B)                   // sleb128(-21): variant opcode
	buf = append(buf, 0x02)                   // 2 fields
	buf = append(buf, 0xBC, 0x8A, 0x01)       // uleb128(17724): hash("Ok")
	buf = append(buf, 0x71)                   // sleb128(-15): text
	buf = append(buf, 0xC5, 0xFE, 0xD2, 0x01) // uleb128(3456837): hash("Err")
	buf = append(buf, 0x71)                   // sleb128(-15): text
	buf = append(buf, 0x01)                   // 1 argument
	buf = append(buf, 0x00)                   // arg type: table index 0

	if okBranch {
		buf = append(buf, 0x00) // variant tag 0 -> Ok
	} else {
		buf = append(buf, 0x01) // variant tag 1 -> Err
	}
	buf = append(buf, testUleb128(uint64(len(text)))...)
	buf = append(buf, text...)
	return buf
}

func testUleb128(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			return out
		}
	}
}

func TestDecodeRealOkVariantUnwraps(t *testing.T) {
	t.Parallel()

	reply := okErrVariantReply(t, true, "k1")
	decoded, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	payload, isErr, _ := UnwrapResult(decoded)
	if isErr {
		t.Fatalf("UnwrapResult() isErr = true for an Ok-tagged reply")
	}
	if payload != "k1" {
		t.Errorf("UnwrapResult() payload = %v, want k1", payload)
	}
}

func TestDecodeRealErrVariantUnwraps(t *testing.T) {
	t.Parallel()

	reply := okErrVariantReply(t, false, "unauthorized")
	decoded, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	_, isErr, msg := UnwrapResult(decoded)
	if !isErr {
		t.Fatal("UnwrapResult() isErr = false for an Err-tagged reply")
	}
	if msg != "unauthorized" {
		t.Errorf("UnwrapResult() msg = %q, want unauthorized", msg)
	}
}

func TestUnwrapResultOk(t *testing.T) {
	t.Parallel()

	payload, isErr, msg := UnwrapResult(map[string]any{"Ok": "k1"})
	if isErr {
		t.Fatalf("UnwrapResult() isErr = true, want false")
	}
	if payload != "k1" {
		t.Errorf("UnwrapResult() payload = %v, want k1", payload)
	}
	if msg != "" {
		t.Errorf("UnwrapResult() msg = %q, want empty", msg)
	}
}

func TestUnwrapResultErr(t *testing.T) {
	t.Parallel()

	_, isErr, msg := UnwrapResult(map[string]any{"Err": "unauthorized"})
	if !isErr {
		t.Fatal("UnwrapResult() isErr = false, want true")
	}
	if msg != "unauthorized" {
		t.Errorf("UnwrapResult() msg = %q, want unauthorized", msg)
	}
}

func TestUnwrapResultPassthrough(t *testing.T) {
	t.Parallel()

	v := map[string]any{"a": 1.0, "b": true}
	payload, isErr, _ := UnwrapResult(v)
	if isErr {
		t.Fatal("UnwrapResult() isErr = true for non-envelope value")
	}
	got, ok := payload.(map[string]any)
	if !ok || len(got) != 2 {
		t.Errorf("UnwrapResult() payload = %v, want passthrough of original map", payload)
	}
}

func TestUnwrapResultNotEnvelopeWhenMultiKey(t *testing.T) {
	t.Parallel()

	v := map[string]any{"Ok": 1, "Err": 2}
	payload, isErr, _ := UnwrapResult(v)
	if isErr {
		t.Fatal("UnwrapResult() isErr = true for two-key map")
	}
	if _, ok := payload.(map[string]any); !ok {
		t.Errorf("UnwrapResult() payload = %v, want passthrough map", payload)
	}
}
