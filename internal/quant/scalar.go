package quant

import (
	"encoding/binary"

	"github.com/chewxy/math32"
)

const (
	// q8Max is the 8-bit magnitude ceiling; the step adapts so a
	// nonzero input always lands on it.
	q8Max = 127
	// q4Max restricts the signed 4-bit range to [-7, 7], sacrificing
	// the -8 code point so encode and decode stay symmetric.
	q4Max = 7

	// UnitSize is the stored size of one Q8 or Q4 unit: an fp16
	// encoded step followed by the code byte.
	UnitSize = 3
)

// Q8 is one adaptively quantized value. The step carries the sign of
// the source value; the magnitude is an unsigned code, so the logical
// value is Bits * DecodeFP16(Step).
type Q8 struct {
	Step uint16 // fp16-encoded signed step
	Bits uint8  // unsigned magnitude
}

// Q4 is one adaptively quantized pair. Bits holds two signed 4-bit
// codes sharing one step: value 0 of the pair occupies the LOW nibble,
// value 1 the high nibble.
type Q4 struct {
	Step uint16 // fp16-encoded step
	Bits uint8  // two signed nibbles
}

// QuantizeQ8 encodes a single float32. The step adapts to the value
// (|v|/127 with v's sign folded in), so each unit is self-describing.
// Zero has no defined step and encodes as {fp16(1.0), 0}.
func QuantizeQ8(value float32) Q8 {
	if value == 0 {
		return Q8{Step: EncodeFP16(1.0), Bits: 0}
	}

	step := math32.Abs(value) / q8Max
	if step == 0 {
		// |value| is subnormal enough that the step underflows; the
		// value is indistinguishable from zero at this precision.
		return Q8{Step: EncodeFP16(1.0), Bits: 0}
	}
	if value < 0 {
		step = -step
	}

	limit := q8Max * math32.Abs(step)
	clamped := clamp(value, -limit, limit)
	mag := round(clamped / step) // non-negative: clamped and step share sign

	return Q8{Step: EncodeFP16(step), Bits: uint8(mag)}
}

// DequantizeQ8 reconstructs the logical value of one Q8 unit.
func DequantizeQ8(q Q8) float32 {
	return float32(q.Bits) * DecodeFP16(q.Step)
}

// QuantizeQ4 encodes a pair of float32 values sharing one step,
// step = max(|a|, |b|)/7. Both values are rounded and clamped to the
// symmetric [-7*step, 7*step] range. A zero pair encodes as
// {fp16(1.0), 0}.
func QuantizeQ4(a, b float32) Q4 {
	maxAbs := math32.Max(math32.Abs(a), math32.Abs(b))
	if maxAbs == 0 {
		return Q4{Step: EncodeFP16(1.0), Bits: 0}
	}

	step := maxAbs / q4Max
	if step == 0 {
		return Q4{Step: EncodeFP16(1.0), Bits: 0}
	}
	limit := q4Max * step
	qa := int8(round(clamp(a, -limit, limit) / step))
	qb := int8(round(clamp(b, -limit, limit) / step))

	bits := (uint8(qb)&0x0F)<<4 | (uint8(qa) & 0x0F)
	return Q4{Step: EncodeFP16(step), Bits: bits}
}

// DequantizeQ4 reconstructs one value of a Q4 pair by index (0 = low
// nibble, 1 = high nibble). Nibbles with the top bit set sign-extend.
func DequantizeQ4(q Q4, index uint32) float32 {
	step := DecodeFP16(q.Step)

	var nib uint8
	if index == 0 {
		nib = q.Bits & 0x0F
	} else {
		nib = (q.Bits >> 4) & 0x0F
	}

	v := int8(nib)
	if nib&0x08 != 0 {
		v -= 16
	}
	return float32(v) * step
}

// DequantizeQ4Pair reconstructs both values of a Q4 unit at once.
func DequantizeQ4Pair(q Q4) (a, b float32) {
	return DequantizeQ4(q, 0), DequantizeQ4(q, 1)
}

// PutQ8 writes one Q8 unit into dst as UnitSize little-endian bytes.
func PutQ8(dst []byte, q Q8) {
	binary.LittleEndian.PutUint16(dst[0:2], q.Step)
	dst[2] = q.Bits
}

// GetQ8 reads one Q8 unit from UnitSize bytes written by PutQ8.
func GetQ8(src []byte) Q8 {
	return Q8{Step: binary.LittleEndian.Uint16(src[0:2]), Bits: src[2]}
}

// PutQ4 writes one Q4 unit into dst as UnitSize little-endian bytes.
func PutQ4(dst []byte, q Q4) {
	binary.LittleEndian.PutUint16(dst[0:2], q.Step)
	dst[2] = q.Bits
}

// GetQ4 reads one Q4 unit from UnitSize bytes written by PutQ4.
func GetQ4(src []byte) Q4 {
	return Q4{Step: binary.LittleEndian.Uint16(src[0:2]), Bits: src[2]}
}

// round is float32 round-half-away-from-zero, matching C's roundf.
func round(v float32) float32 {
	if v < 0 {
		return math32.Ceil(v - 0.5)
	}
	return math32.Floor(v + 0.5)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
