package quant

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
)

func TestQuantizeRowFP16(t *testing.T) {
	input := []float32{1.0, -2.5, 0.333, 4096.0, -0.0001, 0.0}
	output := make([]uint16, len(input))
	QuantizeRowFP16(input, output, len(input), 1)

	restored := make([]float32, len(input))
	DequantizeRowFP16(output, restored, len(restored), 1)

	for i, v := range input {
		if v == 0 {
			if restored[i] != 0 {
				t.Errorf("index %d: expected 0, got %g", i, restored[i])
			}
			continue
		}
		rel := math32.Abs(restored[i]-v) / math32.Abs(v)
		if rel > 0x1p-10 {
			t.Errorf("index %d: value %g restored as %g, relative error %g", i, v, restored[i], rel)
		}
	}
}

func TestQuantizeRowFP16Strided(t *testing.T) {
	// Stride 2 walks every other element; the output is packed.
	input := []float32{1.0, 99.0, 2.0, 99.0, 3.0, 99.0}
	output := make([]uint16, 3)
	QuantizeRowFP16(input, output, len(input), 2)

	for j, want := range []float32{1.0, 2.0, 3.0} {
		if got := DecodeFP16(output[j]); got != want {
			t.Errorf("slot %d: expected %g, got %g", j, want, got)
		}
	}

	// Dequantize scatters back with the same stride, leaving the
	// skipped slots untouched.
	restored := make([]float32, len(input))
	DequantizeRowFP16(output, restored, len(restored), 2)
	for i, want := range []float32{1.0, 0, 2.0, 0, 3.0, 0} {
		if restored[i] != want {
			t.Errorf("index %d: expected %g, got %g", i, want, restored[i])
		}
	}
}

func TestQuantizeRowQ8(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	input := make([]float32, 32)
	for i := range input {
		input[i] = float32((rng.Float64()*2 - 1) * 50)
	}

	row := make(Q8Row, len(input))
	QuantizeRowQ8(input, row, len(input), 1)

	// Steps adapt per element; distinct magnitudes get distinct steps.
	if row[0].Step == row[1].Step && input[0] != input[1] {
		t.Logf("warning: adjacent elements %g and %g share step %#04x",
			input[0], input[1], row[0].Step)
	}

	restored := make([]float32, len(input))
	DequantizeRowQ8(row, restored, len(restored), 1)

	for i, v := range input {
		step := math32.Abs(v) / q8Max
		tol := step/2 + q8Max*math32.Abs(math32.Abs(DecodeFP16(row[i].Step))-step) + step*0x1p-20
		if math32.Abs(restored[i]-v) > tol {
			t.Errorf("index %d: value %g restored as %g", i, v, restored[i])
		}
	}
}

func TestQuantizeRowQ4(t *testing.T) {
	input := []float32{0.5, -0.25, 1.0, 1.0, -3.0, 3.0, 0.0, 0.0}
	row := make(Q4Row, len(input)/2)
	QuantizeRowQ4(input, row, len(input), 1)

	restored := make([]float32, len(input))
	DequantizeRowQ4(row, restored, len(restored), 1)

	for i := 0; i < len(input); i += 2 {
		step := math32.Max(math32.Abs(input[i]), math32.Abs(input[i+1])) / q4Max
		tol := step/2 + step*0x1p-7
		if step == 0 {
			tol = 0
		}
		if math32.Abs(restored[i]-input[i]) > tol {
			t.Errorf("index %d: value %g restored as %g", i, input[i], restored[i])
		}
		if math32.Abs(restored[i+1]-input[i+1]) > tol {
			t.Errorf("index %d: value %g restored as %g", i+1, input[i+1], restored[i+1])
		}
	}
}

func TestQuantizeRowQ4PairsShareStep(t *testing.T) {
	input := []float32{1.0, -7.0, 0.5, 0.5}
	row := make(Q4Row, 2)
	QuantizeRowQ4(input, row, len(input), 1)

	// Pair 0 adapts to max(1, 7) = 7; pair 1 to 0.5. Independent steps.
	step0 := DecodeFP16(row[0].Step)
	step1 := DecodeFP16(row[1].Step)
	if math32.Abs(step0-1.0) > 0.01 {
		t.Errorf("pair 0: expected step near 1.0, got %g", step0)
	}
	if math32.Abs(step1-0.5/7) > 0.001 {
		t.Errorf("pair 1: expected step near %g, got %g", 0.5/7, step1)
	}
}

func TestRowContractViolationsPanic(t *testing.T) {
	expectPanic := func(name string, f func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			f()
		})
	}

	input := []float32{1, 2, 3, 4}

	expectPanic("nil fp16 input", func() {
		QuantizeRowFP16(nil, make([]uint16, 4), 4, 1)
	})
	expectPanic("nil q8 output", func() {
		QuantizeRowQ8(input, nil, 4, 1)
	})
	expectPanic("zero length", func() {
		QuantizeRowQ8(input, make(Q8Row, 4), 0, 1)
	})
	expectPanic("zero stride", func() {
		QuantizeRowQ8(input, make(Q8Row, 4), 4, 0)
	})
	expectPanic("odd q4 count", func() {
		QuantizeRowQ4([]float32{1, 2, 3}, make(Q4Row, 2), 3, 1)
	})
	expectPanic("odd q4 dequant count", func() {
		DequantizeRowQ4(make(Q4Row, 2), make([]float32, 3), 3, 1)
	})
	// Strided walks that visit a trailing partial step are odd too:
	// length 5 stride 2 touches indices 0, 2, 4.
	expectPanic("odd strided q4 count", func() {
		QuantizeRowQ4([]float32{1, 2, 3, 4, 5}, make(Q4Row, 2), 5, 2)
	})
	expectPanic("odd strided q4 dequant count", func() {
		DequantizeRowQ4(make(Q4Row, 2), make([]float32, 5), 5, 2)
	})
}
