package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BufferAllocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numcore_buffer_allocations_total",
		Help: "The total number of typed buffers created",
	})

	BufferReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numcore_buffer_releases_total",
		Help: "The total number of typed buffers released",
	})

	BufferResizesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numcore_buffer_resizes_total",
		Help: "The total number of buffer reallocations by direction",
	}, []string{"direction"})

	BufferBytesAllocated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "numcore_buffer_bytes_allocated",
		Help: "Current bytes held by live typed buffers",
	})

	BufferTruncationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numcore_buffer_truncations_total",
		Help: "The total number of shrink-wins length truncations",
	})

	OutOfBoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numcore_out_of_bounds_total",
		Help: "The total number of rejected out-of-bounds accesses",
	}, []string{"component"})

	QuantizeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numcore_quantize_ops_total",
		Help: "The total number of row quantize/dequantize operations by codec",
	}, []string{"codec", "direction"})
)

// RecordBufferAlloc tracks a new buffer and its backing allocation.
func RecordBufferAlloc(bytes int64) {
	BufferAllocationsTotal.Inc()
	BufferBytesAllocated.Add(float64(bytes))
}

// RecordBufferRelease tracks a buffer release and the bytes returned.
func RecordBufferRelease(bytes int64) {
	BufferReleasesTotal.Inc()
	BufferBytesAllocated.Sub(float64(bytes))
}

// RecordBufferResize tracks a reallocation and the byte delta it caused.
func RecordBufferResize(grow bool, deltaBytes int64) {
	if grow {
		BufferResizesTotal.WithLabelValues("grow").Inc()
	} else {
		BufferResizesTotal.WithLabelValues("shrink").Inc()
	}
	BufferBytesAllocated.Add(float64(deltaBytes))
}

// RecordTruncation tracks a shrink that cut logical length.
func RecordTruncation() {
	BufferTruncationsTotal.Inc()
}

// RecordOutOfBounds tracks a rejected access for the given component.
func RecordOutOfBounds(component string) {
	OutOfBoundsTotal.WithLabelValues(component).Inc()
}

// RecordRowOp tracks one row codec invocation.
func RecordRowOp(codec string, dequantize bool) {
	if dequantize {
		QuantizeOpsTotal.WithLabelValues(codec, "dequantize").Inc()
	} else {
		QuantizeOpsTotal.WithLabelValues(codec, "quantize").Inc()
	}
}
