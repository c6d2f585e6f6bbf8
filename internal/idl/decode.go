package idl

import "math/big"

// tableEntry is a parsed type-table entry: a compound type definition that
// may reference other entries (by index) or primitives (by negative
// opcode) for its element/field types.
type tableEntry struct {
	kind     Kind
	elemCode int64 // Opt, Vec
	fields   []tableFieldCode
}

type tableFieldCode struct {
	id       uint32
	typeCode int64
}

// DecodeArgs parses a Candid argument list into a slice of dynamic Values,
// one per top-level argument, in wire order.
func DecodeArgs(data []byte) ([]Value, error) {
	r := &byteReader{data: data}

	hdr, err := r.readN(4)
	if err != nil {
		return nil, errf("idl: %w", err)
	}
	if string(hdr) != magic {
		return nil, errf("idl: missing DIDL magic header")
	}

	tableLen, err := r.readUleb128Uint64()
	if err != nil {
		return nil, errf("idl: reading type table length: %w", err)
	}

	table := make([]tableEntry, tableLen)
	for i := range table {
		entry, err := readTableEntry(r)
		if err != nil {
			return nil, errf("idl: reading type table entry %d: %w", i, err)
		}
		table[i] = entry
	}

	argCount, err := r.readUleb128Uint64()
	if err != nil {
		return nil, errf("idl: reading argument count: %w", err)
	}

	codes := make([]int64, argCount)
	for i := range codes {
		code, err := r.readSleb128Int64()
		if err != nil {
			return nil, errf("idl: reading argument type %d: %w", i, err)
		}
		codes[i] = code
	}

	values := make([]Value, argCount)
	for i, code := range codes {
		v, err := decodeValueByCode(r, code, table)
		if err != nil {
			return nil, errf("idl: decoding argument %d: %w", i, err)
		}
		values[i] = v
	}

	return values, nil
}

func readTableEntry(r *byteReader) (tableEntry, error) {
	opcode, err := r.readSleb128Int64()
	if err != nil {
		return tableEntry{}, err
	}

	switch opcode {
	case primitiveOpcode[KindOpt], primitiveOpcode[KindVec]:
		elemCode, err := r.readSleb128Int64()
		if err != nil {
			return tableEntry{}, err
		}
		kind := KindOpt
		if opcode == primitiveOpcode[KindVec] {
			kind = KindVec
		}
		return tableEntry{kind: kind, elemCode: elemCode}, nil

	case primitiveOpcode[KindRecord], primitiveOpcode[KindVariant]:
		count, err := r.readUleb128Uint64()
		if err != nil {
			return tableEntry{}, err
		}
		kind := KindRecord
		if opcode == primitiveOpcode[KindVariant] {
			kind = KindVariant
		}
		fields := make([]tableFieldCode, count)
		for i := range fields {
			id, err := r.readUleb128Uint64()
			if err != nil {
				return tableEntry{}, err
			}
			typeCode, err := r.readSleb128Int64()
			if err != nil {
				return tableEntry{}, err
			}
			fields[i] = tableFieldCode{id: uint32(id), typeCode: typeCode}
		}
		return tableEntry{kind: kind, fields: fields}, nil

	case primitiveOpcode[KindFunc]:
		// arg types, result types, annotations — skipped structurally,
		// only the shape (not callable) matters for JSON projection.
		if err := skipTypeList(r); err != nil {
			return tableEntry{}, err
		}
		if err := skipTypeList(r); err != nil {
			return tableEntry{}, err
		}
		annCount, err := r.readUleb128Uint64()
		if err != nil {
			return tableEntry{}, err
		}
		for i := uint64(0); i < annCount; i++ {
			if _, err := r.readByte(); err != nil {
				return tableEntry{}, err
			}
		}
		return tableEntry{kind: KindFunc}, nil

	case primitiveOpcode[KindService]:
		methodCount, err := r.readUleb128Uint64()
		if err != nil {
			return tableEntry{}, err
		}
		for i := uint64(0); i < methodCount; i++ {
			nameLen, err := r.readUleb128Uint64()
			if err != nil {
				return tableEntry{}, err
			}
			if _, err := r.readN(int(nameLen)); err != nil {
				return tableEntry{}, err
			}
			if _, err := r.readSleb128Int64(); err != nil {
				return tableEntry{}, err
			}
		}
		return tableEntry{kind: KindService}, nil

	default:
		return tableEntry{}, errf("idl: unsupported type table opcode %d", opcode)
	}
}

func skipTypeList(r *byteReader) error {
	count, err := r.readUleb128Uint64()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		if _, err := r.readSleb128Int64(); err != nil {
			return err
		}
	}
	return nil
}

func decodeValueByCode(r *byteReader, code int64, table []tableEntry) (Value, error) {
	if code < 0 {
		kind, ok := opcodeKind[code]
		if !ok {
			return Value{}, errf("idl: unknown primitive opcode %d", code)
		}
		return decodePrimitive(r, kind)
	}

	if int(code) >= len(table) {
		return Value{}, errf("idl: type index %d out of range", code)
	}
	entry := table[code]

	switch entry.kind {
	case KindOpt:
		tag, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		if tag == 0 {
			return Value{Kind: KindOpt}, nil
		}
		inner, err := decodeValueByCode(r, entry.elemCode, table)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindOpt, Elem: &inner}, nil

	case KindVec:
		n, err := r.readUleb128Uint64()
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, n)
		for i := range elems {
			v, err := decodeValueByCode(r, entry.elemCode, table)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{Kind: KindVec, Elems: elems}, nil

	case KindRecord:
		fields := make([]FieldValue, len(entry.fields))
		for i, f := range entry.fields {
			v, err := decodeValueByCode(r, f.typeCode, table)
			if err != nil {
				return Value{}, err
			}
			fields[i] = FieldValue{ID: f.id, Value: v}
		}
		return Value{Kind: KindRecord, Fields: fields}, nil

	case KindVariant:
		idx, err := r.readUleb128Uint64()
		if err != nil {
			return Value{}, err
		}
		if int(idx) >= len(entry.fields) {
			return Value{}, errf("idl: variant tag %d out of range", idx)
		}
		f := entry.fields[idx]
		v, err := decodeValueByCode(r, f.typeCode, table)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindVariant, Fields: []FieldValue{{ID: f.id, Value: v}}}, nil

	case KindFunc, KindService:
		tag, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		if tag == 0 {
			return Value{Kind: entry.kind}, nil
		}
		p, err := readPrincipalBytes(r)
		if err != nil {
			return Value{}, err
		}
		fv := &FuncValue{Principal: p}
		if entry.kind == KindFunc {
			method, err := readText(r)
			if err != nil {
				return Value{}, err
			}
			fv.Method = method
		}
		return Value{Kind: entry.kind, FuncRef: fv}, nil

	default:
		return Value{}, errf("idl: unsupported table entry kind %v", entry.kind)
	}
}

func decodePrimitive(r *byteReader, kind Kind) (Value, error) {
	switch kind {
	case KindNull, KindReserved, KindEmpty:
		return Value{Kind: kind}, nil
	case KindBool:
		b, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Bool: b != 0}, nil
	case KindNat:
		n, err := r.readUleb128()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindNat, Int: n}, nil
	case KindInt:
		n, err := r.readSleb128()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindInt, Int: n}, nil
	case KindNat8, KindNat16, KindNat32, KindNat64:
		n, err := readFixedUnsigned(r, kind)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: kind, Int: n}, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := readFixedSigned(r, kind)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: kind, Int: n}, nil
	case KindFloat32:
		b, err := r.readN(4)
		if err != nil {
			return Value{}, err
		}
		bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		return Value{Kind: KindFloat32, Float: float64(float32frombits(bits))}, nil
	case KindFloat64:
		b, err := r.readN(8)
		if err != nil {
			return Value{}, err
		}
		var bits uint64
		for i := 7; i >= 0; i-- {
			bits = bits<<8 | uint64(b[i])
		}
		return Value{Kind: KindFloat64, Float: float64frombits(bits)}, nil
	case KindText:
		s, err := readText(r)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindText, Text: s}, nil
	case KindPrincipal:
		p, err := readPrincipalBytes(r)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindPrincipal, Principal: p}, nil
	default:
		return Value{}, errf("idl: unsupported primitive kind %v", kind)
	}
}

func readText(r *byteReader) (string, error) {
	n, err := r.readUleb128Uint64()
	if err != nil {
		return "", err
	}
	b, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readPrincipalBytes(r *byteReader) ([]byte, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, errf("idl: opaque principal reference is not supported")
	}
	n, err := r.readUleb128Uint64()
	if err != nil {
		return nil, err
	}
	b, err := r.readN(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func readFixedUnsigned(r *byteReader, kind Kind) (*big.Int, error) {
	size := fixedByteSize(kind)
	b, err := r.readN(size)
	if err != nil {
		return nil, err
	}
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return new(big.Int).SetUint64(v), nil
}

func readFixedSigned(r *byteReader, kind Kind) (*big.Int, error) {
	size := fixedByteSize(kind)
	b, err := r.readN(size)
	if err != nil {
		return nil, err
	}
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	switch kind {
	case KindInt8:
		return big.NewInt(int64(int8(v))), nil
	case KindInt16:
		return big.NewInt(int64(int16(v))), nil
	case KindInt32:
		return big.NewInt(int64(int32(v))), nil
	case KindInt64:
		return big.NewInt(int64(v)), nil
	default:
		return nil, errf("idl: not a fixed signed kind: %v", kind)
	}
}

func fixedByteSize(kind Kind) int {
	switch kind {
	case KindNat8, KindInt8:
		return 1
	case KindNat16, KindInt16:
		return 2
	case KindNat32, KindInt32:
		return 4
	case KindNat64, KindInt64:
		return 8
	default:
		return 0
	}
}
