// Package idl implements a dynamic (schema-less) codec for the Candid
// interface description language used by Internet Computer canisters. It
// encodes and decodes IDL argument lists against a generic Value/Type
// model rather than generated static Go types, since the bridge never has
// compile-time knowledge of a canister's interface.
package idl

import (
	"errors"
	"fmt"
	"math/big"
)

var errUnexpectedEOF = errors.New("idl: unexpected end of input")

// Kind identifies the shape of a Candid type or value.
type Kind int

// Candid primitive and composite type kinds. Values mirror the grouping in
// the Candid specification; opcodes (below) are the wire encoding, not
// these Kind values.
const (
	KindNull Kind = iota
	KindBool
	KindNat
	KindNat8
	KindNat16
	KindNat32
	KindNat64
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	KindReserved
	KindEmpty
	KindOpt
	KindVec
	KindRecord
	KindVariant
	KindPrincipal
	KindService
	KindFunc
)

// primitiveOpcode is the signed LEB128 type-table opcode for each Kind, per
// the Candid wire format. Composite kinds (opt, vec, record, variant, func,
// service) are encoded as non-negative indices into a type table instead of
// a fixed opcode; their opcodes below are only used inside type-table
// entries to tag which compound shape an entry describes.
var primitiveOpcode = map[Kind]int64{
	KindNull:      -1,
	KindBool:      -2,
	KindNat:       -3,
	KindInt:       -4,
	KindNat8:      -5,
	KindNat16:     -6,
	KindNat32:     -7,
	KindNat64:     -8,
	KindInt8:      -9,
	KindInt16:     -10,
	KindInt32:     -11,
	KindInt64:     -12,
	KindFloat32:   -13,
	KindFloat64:   -14,
	KindText:      -15,
	KindReserved:  -16,
	KindEmpty:     -17,
	KindOpt:       -18,
	KindVec:       -19,
	KindRecord:    -20,
	KindVariant:   -21,
	KindFunc:      -22,
	KindService:   -23,
	KindPrincipal: -24,
}

var opcodeKind = func() map[int64]Kind {
	m := make(map[int64]Kind, len(primitiveOpcode))
	for k, v := range primitiveOpcode {
		m[v] = k
	}
	return m
}()

func isPrimitive(k Kind) bool {
	switch k {
	case KindOpt, KindVec, KindRecord, KindVariant, KindFunc, KindService:
		return false
	default:
		return true
	}
}

// Type describes a Candid type structurally. Field names are carried
// best-effort: the wire format only ever transmits a 32-bit field-id hash,
// never the original identifier, so Name is populated only when the caller
// supplies it up front (encode side); on decode it is always empty and the
// stringified id is used instead.
type Type struct {
	Kind   Kind
	Elem   *Type   // Opt, Vec
	Fields []Field // Record, Variant
}

// Field is a named, typed member of a Record or Variant type.
type Field struct {
	ID   uint32
	Name string
	Type Type
}

// Value is a dynamic Candid value tied structurally to a Type.
type Value struct {
	Kind      Kind
	Bool      bool
	Int       *big.Int // Nat/Int family, arbitrary precision
	Float     float64
	Text      string
	Principal []byte
	Elem      *Value        // Opt: nil means None
	Elems     []Value       // Vec
	Fields    []FieldValue  // Record: all fields; Variant: exactly one
	FuncRef   *FuncValue    // Func
}

// FieldValue pairs a field id (and, when known, name) with its value.
type FieldValue struct {
	ID    uint32
	Name  string
	Value Value
}

// FuncValue is the textual projection target for func/service references:
// a principal plus an optional method name.
type FuncValue struct {
	Principal []byte
	Method    string
}

// Text constructs a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bool constructs a bool value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NatFromUint64 constructs a nat value (unbounded natural).
func NatFromUint64(n uint64) Value {
	return Value{Kind: KindNat, Int: new(big.Int).SetUint64(n)}
}

// IntFromInt64 constructs an int value (unbounded signed integer).
func IntFromInt64(n int64) Value {
	return Value{Kind: KindInt, Int: big.NewInt(n)}
}

// FixedWidth constructs a value of one of the fixed-width nat*/int* kinds.
func FixedWidth(kind Kind, n *big.Int) Value {
	return Value{Kind: kind, Int: n}
}

// Float constructs a float32 or float64 value.
func Float(kind Kind, f float64) Value {
	return Value{Kind: kind, Float: f}
}

// PrincipalValue constructs a principal value from its raw bytes.
func PrincipalValue(p []byte) Value {
	return Value{Kind: KindPrincipal, Principal: p}
}

// None constructs an absent opt value. The element type is carried by the
// accompanying Type, not by the value.
func None() Value { return Value{Kind: KindOpt, Elem: nil} }

// Some constructs a present opt value wrapping inner.
func Some(inner Value) Value { return Value{Kind: KindOpt, Elem: &inner} }

// Vec constructs a vec value from its elements.
func Vec(elems []Value) Value { return Value{Kind: KindVec, Elems: elems} }

// errf wraps fmt.Errorf to keep call sites terse.
func errf(format string, args ...any) error { return fmt.Errorf(format, args...) }
