// quantprobe round-trips seeded random rows through each quantization
// codec and reports per-codec error statistics.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/chewxy/math32"

	"github.com/quarry-ml/numcore/internal/config"
	"github.com/quarry-ml/numcore/internal/logger"
	"github.com/quarry-ml/numcore/internal/quant"
)

func main() {
	cfg := config.Default()
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the probe rows")
	flag.IntVar(&cfg.RowLength, "row-length", cfg.RowLength, "elements per probe row")
	flag.IntVar(&cfg.RowStride, "row-stride", cfg.RowStride, "stride walked within each row")
	flag.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "probe rows per codec")
	scale := flag.Float64("scale", 10.0, "magnitude range of the sampled values")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "quantprobe: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	rng := rand.New(rand.NewSource(cfg.Seed))

	log.Info("probing codecs",
		"seed", cfg.Seed,
		"row_length", cfg.RowLength,
		"row_stride", cfg.RowStride,
		"iterations", cfg.Iterations)

	probeFP16(log, rng, cfg, float32(*scale))
	probeQ8(log, rng, cfg, float32(*scale))
	probeQ4(log, rng, cfg, float32(*scale))
}

func sampleRow(rng *rand.Rand, length int, scale float32) []float32 {
	row := make([]float32, length)
	for i := range row {
		row[i] = (rng.Float32()*2 - 1) * scale
	}
	return row
}

func probeFP16(log *logger.Logger, rng *rand.Rand, cfg *config.Config, scale float32) {
	walked := cfg.RowLength / cfg.RowStride
	var maxRel float32

	for it := 0; it < cfg.Iterations; it++ {
		input := sampleRow(rng, cfg.RowLength, scale)
		encoded := make([]uint16, walked)
		restored := make([]float32, cfg.RowLength)

		quant.QuantizeRowFP16(input, encoded, cfg.RowLength, cfg.RowStride)
		quant.DequantizeRowFP16(encoded, restored, cfg.RowLength, cfg.RowStride)

		for i := 0; i < cfg.RowLength; i += cfg.RowStride {
			if input[i] == 0 {
				continue
			}
			rel := math32.Abs(restored[i]-input[i]) / math32.Abs(input[i])
			if rel > maxRel {
				maxRel = rel
			}
		}
	}

	log.Info("fp16 probe complete", "max_rel_error", maxRel)
}

func probeQ8(log *logger.Logger, rng *rand.Rand, cfg *config.Config, scale float32) {
	walked := cfg.RowLength / cfg.RowStride
	var maxAbs, maxStep float32

	for it := 0; it < cfg.Iterations; it++ {
		input := sampleRow(rng, cfg.RowLength, scale)
		row := make(quant.Q8Row, walked)
		restored := make([]float32, cfg.RowLength)

		quant.QuantizeRowQ8(input, row, cfg.RowLength, cfg.RowStride)
		quant.DequantizeRowQ8(row, restored, cfg.RowLength, cfg.RowStride)

		for i := 0; i < cfg.RowLength; i += cfg.RowStride {
			if e := math32.Abs(restored[i] - input[i]); e > maxAbs {
				maxAbs = e
			}
			if s := math32.Abs(input[i]) / 127; s > maxStep {
				maxStep = s
			}
		}
	}

	log.Info("q8 probe complete", "max_abs_error", maxAbs, "half_step_bound", maxStep/2)
}

func probeQ4(log *logger.Logger, rng *rand.Rand, cfg *config.Config, scale float32) {
	walked := cfg.RowLength / cfg.RowStride
	var maxAbs, maxStep float32

	for it := 0; it < cfg.Iterations; it++ {
		input := sampleRow(rng, cfg.RowLength, scale)
		row := make(quant.Q4Row, walked/2)
		restored := make([]float32, cfg.RowLength)

		quant.QuantizeRowQ4(input, row, cfg.RowLength, cfg.RowStride)
		quant.DequantizeRowQ4(row, restored, cfg.RowLength, cfg.RowStride)

		for i := 0; i < cfg.RowLength; i += cfg.RowStride {
			if e := math32.Abs(restored[i] - input[i]); e > maxAbs {
				maxAbs = e
			}
		}
		for i := 0; i < cfg.RowLength; i += 2 * cfg.RowStride {
			pairMax := math32.Max(math32.Abs(input[i]), math32.Abs(input[i+cfg.RowStride]))
			if s := pairMax / 7; s > maxStep {
				maxStep = s
			}
		}
	}

	log.Info("q4 probe complete", "max_abs_error", maxAbs, "half_step_bound", maxStep/2)
}
