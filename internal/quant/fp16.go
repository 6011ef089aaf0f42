// Package quant holds the scalar and row quantization codecs. All
// functions are pure and use float32 as the canonical interchange type.
//
// Three compact encodings are supported: IEEE-754 half precision,
// adaptive 8-bit (Q8) and adaptive packed 4-bit (Q4). The fp16 codec
// doubles as the scale carrier inside Q8 and Q4 units.
package quant

import (
	"math"

	"github.com/chewxy/math32"
)

// The half conversion leans on the platform's correctly-rounded float32
// multiply instead of re-deriving rounding by hand. Multiplying |v| by
// scaleToInf shifts the significand up against the top of the float32
// exponent range, and the following multiply by scaleToZero shifts it
// back down; the two round trips leave exactly the rounding a direct
// fp16 conversion would have applied to the low mantissa bits.
const (
	// fp16ScaleToInf is 2^112; pushes the rebias toward the fp16
	// exponent ceiling.
	fp16ScaleToInf float32 = 0x1p+112
	// fp16ScaleToZero is 2^-110; pulls the scaled value back so that
	// denormal results round correctly.
	fp16ScaleToZero float32 = 0x1p-110

	// fp16ExpBiasFloor is the minimum rebiased exponent field (in the
	// doubled-bits domain) below which inputs land in the fp16
	// denormal range.
	fp16ExpBiasFloor uint32 = 0x71000000
	// fp16RoundBase is added (in float32 bit space) to align the
	// significand for mantissa extraction.
	fp16RoundBase uint32 = 0x07800000
	// fp16Infinity is the saturated bit pattern produced when the
	// rebiased exponent overflows 16 bits.
	fp16Infinity uint16 = 0x7E00

	// fp16ExpOffset rebiases a decoded half exponent into float32
	// space (224 << 23).
	fp16ExpOffset uint32 = 0xE0 << 23
	// fp16ExpScale is 2^-112, undoing the decode rebias.
	fp16ExpScale float32 = 0x1p-112
	// fp16DenormMagicMask overlays the denormal significand onto the
	// float32 representation of 0.5 (bit pattern 126 << 23).
	fp16DenormMagicMask uint32 = 0x3F000000
	// fp16DenormMagicBias is subtracted to recover the denormal value.
	fp16DenormMagicBias float32 = 0.5
	// fp16DenormCutoff separates denormal from normal halves in the
	// doubled-bits domain.
	fp16DenormCutoff uint32 = 1 << 27
)

// EncodeFP32 returns the raw IEEE-754 bit pattern of a float32.
func EncodeFP32(value float32) uint32 {
	return math.Float32bits(value)
}

// DecodeFP32 reinterprets a raw bit pattern as a float32.
func DecodeFP32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// EncodeFP16 converts a float32 to its 16-bit half-precision bit
// pattern: sign extracted, exponent rebiased from 127 to 15, denormals
// produced by the documented scale round trip, and overflow saturated
// to fp16Infinity.
func EncodeFP16(value float32) uint16 {
	base := (math32.Abs(value) * fp16ScaleToInf) * fp16ScaleToZero

	w := EncodeFP32(value)
	shl1w := w + w
	sign := w & 0x80000000
	bias := shl1w & 0xFF000000
	if bias < fp16ExpBiasFloor {
		bias = fp16ExpBiasFloor
	}

	base = DecodeFP32((bias>>1)+fp16RoundBase) + base
	bits := EncodeFP32(base)
	expBits := (bits >> 13) & 0x00007C00
	mantissaBits := bits & 0x00000FFF
	nonsign := expBits + mantissaBits

	if shl1w > 0xFF000000 {
		return uint16(sign>>16) | fp16Infinity
	}
	return uint16(sign>>16) | uint16(nonsign)
}

// DecodeFP16 converts a 16-bit half-precision bit pattern to float32.
// Normals are rebiased through fp16ExpOffset and rescaled; denormals
// are recovered by overlaying their significand onto 0.5 and
// subtracting it back out.
func DecodeFP16(bits uint16) float32 {
	w := uint32(bits) << 16
	sign := w & 0x80000000
	twoW := w + w

	normalized := DecodeFP32((twoW>>4)+fp16ExpOffset) * fp16ExpScale
	denormalized := DecodeFP32((twoW>>17)|fp16DenormMagicMask) - fp16DenormMagicBias

	if twoW < fp16DenormCutoff {
		return DecodeFP32(sign | EncodeFP32(denormalized))
	}
	return DecodeFP32(sign | EncodeFP32(normalized))
}
