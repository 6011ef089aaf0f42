package quant

import (
	"fmt"

	"github.com/quarry-ml/numcore/internal/metrics"
)

// Row codecs walk an input run with a configurable stride and apply the
// scalar codec per element (fp16, Q8) or per adjacent strided pair
// (Q4). Every element or pair carries its own independently adapted
// step; there is no shared per-block scale.
//
// Nil rows, non-positive lengths or strides, and odd-length Q4 input
// are contract violations and panic; they are programmer errors, not
// data-dependent failures.

// Q8Row is a fixed-length run of Q8 units.
type Q8Row []Q8

// Q4Row is a fixed-length run of Q4 units; each unit covers two
// logical values.
type Q4Row []Q4

func checkRow(name string, inLen, outLen, length, stride int) {
	if inLen == 0 || outLen == 0 {
		panic(fmt.Sprintf("quant: %s: nil or empty row", name))
	}
	if length <= 0 || stride <= 0 {
		panic(fmt.Sprintf("quant: %s: length %d and stride %d must be positive", name, length, stride))
	}
}

// checkPairRow additionally requires the walked element count to be
// even, counting the final partial step a ceil walk visits.
func checkPairRow(name string, inLen, outLen, length, stride int) {
	checkRow(name, inLen, outLen, length, stride)
	walked := (length + stride - 1) / stride
	if walked%2 != 0 {
		panic(fmt.Sprintf("quant: %s: odd element count %d", name, walked))
	}
}

// QuantizeRowFP16 encodes every stride-th element of input[:length]
// into consecutive slots of output.
func QuantizeRowFP16(input []float32, output []uint16, length, stride int) {
	checkRow("quantize row fp16", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+stride, j+1 {
		output[j] = EncodeFP16(input[i])
	}
	metrics.RecordRowOp("fp16", false)
}

// DequantizeRowFP16 decodes consecutive input slots back into every
// stride-th element of output[:length].
func DequantizeRowFP16(input []uint16, output []float32, length, stride int) {
	checkRow("dequantize row fp16", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+stride, j+1 {
		output[i] = DecodeFP16(input[j])
	}
	metrics.RecordRowOp("fp16", true)
}

// QuantizeRowQ8 encodes every stride-th element of input[:length] into
// consecutive Q8 units, one adapted step per element.
func QuantizeRowQ8(input []float32, output Q8Row, length, stride int) {
	checkRow("quantize row q8", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+stride, j+1 {
		output[j] = QuantizeQ8(input[i])
	}
	metrics.RecordRowOp("q8", false)
}

// DequantizeRowQ8 decodes consecutive Q8 units back into every
// stride-th element of output[:length].
func DequantizeRowQ8(input Q8Row, output []float32, length, stride int) {
	checkRow("dequantize row q8", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+stride, j+1 {
		output[i] = DequantizeQ8(input[j])
	}
	metrics.RecordRowOp("q8", true)
}

// QuantizeRowQ4 encodes strided pairs (input[i], input[i+stride]) into
// consecutive Q4 units, one adapted step per pair. The walked element
// count must be even.
func QuantizeRowQ4(input []float32, output Q4Row, length, stride int) {
	checkPairRow("quantize row q4", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+2*stride, j+1 {
		output[j] = QuantizeQ4(input[i], input[i+stride])
	}
	metrics.RecordRowOp("q4", false)
}

// DequantizeRowQ4 decodes consecutive Q4 units back into strided pairs
// of output[:length].
func DequantizeRowQ4(input Q4Row, output []float32, length, stride int) {
	checkPairRow("dequantize row q4", len(input), len(output), length, stride)

	for i, j := 0, 0; i < length; i, j = i+2*stride, j+1 {
		output[i] = DequantizeQ4(input[j], 0)
		output[i+stride] = DequantizeQ4(input[j], 1)
	}
	metrics.RecordRowOp("q4", true)
}
