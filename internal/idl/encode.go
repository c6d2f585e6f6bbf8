package idl

import "math/big"

const magic = "DIDL"

// Arg pairs a declared Type with the Value to encode for it. EncodeArgs
// treats each Arg as an independent top-level argument — this is what makes
// a positional calling convention "k separate arguments" rather than one
// k-tuple record argument.
type Arg struct {
	Type  Type
	Value Value
}

// typeTable accumulates compound type-table entries during encoding. Each
// entry is appended once per registerType call; entries are not deduped,
// which is wire-valid (duplicate entries just waste a few bytes) and keeps
// the builder simple for the Opt/Vec nesting depths this bridge produces.
type typeTable struct {
	entries [][]byte
}

func (tt *typeTable) add(entry []byte) int64 {
	tt.entries = append(tt.entries, entry)
	return int64(len(tt.entries) - 1)
}

// EncodeArgs encodes a list of independently-typed values as a Candid
// argument list: "DIDL" magic, a type table, the per-argument type codes,
// then the value encodings in order.
func EncodeArgs(args []Arg) ([]byte, error) {
	tt := &typeTable{}
	typeCodes := make([]int64, len(args))
	for i, a := range args {
		code, err := registerType(tt, a.Type)
		if err != nil {
			return nil, errf("idl: encode arg %d: %w", i, err)
		}
		typeCodes[i] = code
	}

	buf := []byte(magic)
	buf = appendUleb128Uint64(buf, uint64(len(tt.entries)))
	for _, entry := range tt.entries {
		buf = append(buf, entry...)
	}
	buf = appendUleb128Uint64(buf, uint64(len(args)))
	for _, code := range typeCodes {
		buf = appendSleb128Int64(buf, code)
	}
	for i, a := range args {
		var err error
		buf, err = encodeValue(buf, a.Type, a.Value)
		if err != nil {
			return nil, errf("idl: encode value %d: %w", i, err)
		}
	}
	return buf, nil
}

// registerType returns the type code for t: a primitive opcode, or a
// non-negative index into tt for a registered compound entry.
func registerType(tt *typeTable, t Type) (int64, error) {
	if isPrimitive(t.Kind) {
		code, ok := primitiveOpcode[t.Kind]
		if !ok {
			return 0, errf("idl: unknown primitive kind %d", t.Kind)
		}
		return code, nil
	}

	switch t.Kind {
	case KindOpt, KindVec:
		if t.Elem == nil {
			return 0, errf("idl: %v missing element type", t.Kind)
		}
		elemCode, err := registerType(tt, *t.Elem)
		if err != nil {
			return 0, err
		}
		entry := appendSleb128Int64([]byte{}, primitiveOpcode[t.Kind])
		entry = appendSleb128Int64(entry, elemCode)
		return tt.add(entry), nil
	default:
		return 0, errf("idl: encoding type %v is not supported", t.Kind)
	}
}

func encodeValue(buf []byte, t Type, v Value) ([]byte, error) {
	switch t.Kind {
	case KindText:
		return appendText(buf, v.Text), nil
	case KindBool:
		if v.Bool {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case KindNat, KindNat8, KindNat16, KindNat32, KindNat64:
		return appendUnsigned(buf, t.Kind, v.Int)
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return appendSigned(buf, t.Kind, v.Int)
	case KindFloat32:
		return appendFloat32(buf, v.Float), nil
	case KindFloat64:
		return appendFloat64(buf, v.Float), nil
	case KindPrincipal:
		return appendPrincipal(buf, v.Principal), nil
	case KindOpt:
		if v.Elem == nil {
			return append(buf, 0), nil
		}
		buf = append(buf, 1)
		return encodeValue(buf, *t.Elem, *v.Elem)
	case KindVec:
		buf = appendUleb128Uint64(buf, uint64(len(v.Elems)))
		for i := range v.Elems {
			var err error
			buf, err = encodeValue(buf, *t.Elem, v.Elems[i])
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case KindNull, KindReserved, KindEmpty:
		return buf, nil
	default:
		return nil, errf("idl: encoding value of kind %v is not supported", t.Kind)
	}
}

func appendText(buf []byte, s string) []byte {
	b := []byte(s)
	buf = appendUleb128Uint64(buf, uint64(len(b)))
	return append(buf, b...)
}

func appendPrincipal(buf []byte, p []byte) []byte {
	buf = append(buf, 1) // tag byte: 1 = principal has a concrete id (never "opaque reference")
	buf = appendUleb128Uint64(buf, uint64(len(p)))
	return append(buf, p...)
}

func appendUnsigned(buf []byte, kind Kind, n *big.Int) ([]byte, error) {
	if n == nil {
		n = big.NewInt(0)
	}
	if n.Sign() < 0 {
		return nil, errf("idl: negative value for unsigned kind %v", kind)
	}
	switch kind {
	case KindNat:
		return appendUleb128(buf, n), nil
	case KindNat8:
		return append(buf, byte(n.Uint64())), nil
	case KindNat16:
		v := uint16(n.Uint64())
		return append(buf, byte(v), byte(v>>8)), nil
	case KindNat32:
		v := uint32(n.Uint64())
		return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)), nil
	case KindNat64:
		v := n.Uint64()
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(v>>(8*uint(i))))
		}
		return buf, nil
	default:
		return nil, errf("idl: not an unsigned kind: %v", kind)
	}
}

func appendSigned(buf []byte, kind Kind, n *big.Int) ([]byte, error) {
	if n == nil {
		n = big.NewInt(0)
	}
	switch kind {
	case KindInt:
		return appendSleb128(buf, n), nil
	case KindInt8:
		return append(buf, byte(int8(n.Int64()))), nil
	case KindInt16:
		v := uint16(int16(n.Int64()))
		return append(buf, byte(v), byte(v>>8)), nil
	case KindInt32:
		v := uint32(int32(n.Int64()))
		return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)), nil
	case KindInt64:
		v := uint64(n.Int64())
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(v>>(8*uint(i))))
		}
		return buf, nil
	default:
		return nil, errf("idl: not a signed kind: %v", kind)
	}
}

func appendFloat32(buf []byte, f float64) []byte {
	bits := float32bits(float32(f))
	for i := 0; i < 4; i++ {
		buf = append(buf, byte(bits>>(8*uint(i))))
	}
	return buf
}

func appendFloat64(buf []byte, f float64) []byte {
	bits := float64bits(f)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(bits>>(8*uint(i))))
	}
	return buf
}
