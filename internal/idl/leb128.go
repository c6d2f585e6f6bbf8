package idl

import "math/big"

// appendUleb128 appends the unsigned LEB128 encoding of n to buf.
func appendUleb128(buf []byte, n *big.Int) []byte {
	if n.Sign() < 0 {
		panic("appendUleb128: negative value")
	}
	v := new(big.Int).Set(n)
	mask := big.NewInt(0x7f)
	zero := big.NewInt(0)
	for {
		b := new(big.Int).And(v, mask)
		v.Rsh(v, 7)
		if v.Cmp(zero) == 0 {
			buf = append(buf, byte(b.Int64()))
			return buf
		}
		buf = append(buf, byte(b.Int64())|0x80)
	}
}

// appendUleb128Uint64 is a fast path for small unsigned values.
func appendUleb128Uint64(buf []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// appendSleb128Int64 appends the signed LEB128 encoding of n (fits in int64,
// used for type-table opcodes and field ids) to buf.
func appendSleb128Int64(buf []byte, n int64) []byte {
	more := true
	for more {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// appendSleb128 appends the signed LEB128 encoding of a big.Int. math/big's
// bitwise operators (And, Rsh) treat negative operands as if represented in
// infinite-precision two's complement, which is exactly what this needs.
func appendSleb128(buf []byte, n *big.Int) []byte {
	v := new(big.Int).Set(n)
	mask := big.NewInt(0x7f)
	negOne := big.NewInt(-1)
	for {
		chunk := new(big.Int).And(v, mask)
		b := byte(chunk.Int64())
		v.Rsh(v, 7)

		signBitSet := b&0x40 != 0
		done := (v.Sign() == 0 && !signBitSet) || (v.Cmp(negOne) == 0 && signBitSet)
		if !done {
			b |= 0x80
		}
		buf = append(buf, b)
		if done {
			return buf
		}
	}
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

// readUleb128 reads an unsigned LEB128 integer as a big.Int.
func (r *byteReader) readUleb128() (*big.Int, error) {
	result := new(big.Int)
	shift := uint(0)
	for {
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		chunk := new(big.Int).SetUint64(uint64(b & 0x7f))
		chunk.Lsh(chunk, shift)
		result.Or(result, chunk)
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// readUleb128Uint64 reads a ULEB128 integer expected to fit in a uint64
// (used for lengths, field ids, and type-table sizes).
func (r *byteReader) readUleb128Uint64() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// readSleb128Int64 reads a SLEB128 integer expected to fit in an int64
// (used for type-table opcodes, which are always small negative or small
// non-negative indices).
func (r *byteReader) readSleb128Int64() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.readByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// readSleb128 reads a SLEB128 integer as a big.Int (used for nat/int values,
// which are unbounded in Candid).
func (r *byteReader) readSleb128() (*big.Int, error) {
	result := new(big.Int)
	shift := uint(0)
	var b byte
	var err error
	for {
		b, err = r.readByte()
		if err != nil {
			return nil, err
		}
		chunk := new(big.Int).SetUint64(uint64(b & 0x7f))
		chunk.Lsh(chunk, shift)
		result.Or(result, chunk)
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if b&0x40 != 0 {
		mask := new(big.Int).Lsh(big.NewInt(1), shift)
		result.Sub(result, mask)
	}
	return result, nil
}
