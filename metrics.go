package evbuffer

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// counters mirrors biscuit's stats.Counter_t: a small set of always-on
// atomic tallies. Unlike the kernel original these are unconditional —
// a userspace library doesn't get to recompile itself per deployment —
// but Prometheus registration remains opt-in (see WithMetrics).
type counters struct {
	bytesAdded     atomic.Int64
	bytesDrained   atomic.Int64
	segmentsAlloc  atomic.Int64
	segmentsFreed  atomic.Int64
	pullupCalls    atomic.Int64
	pullupCopied   atomic.Int64
	searchCalls    atomic.Int64
	callbackFires  atomic.Int64
	deferredBatches atomic.Int64
}

// Stats is a point-in-time snapshot of a buffer's lifetime counters.
type Stats struct {
	BytesAdded      int64
	BytesDrained    int64
	SegmentsAlloc   int64
	SegmentsFreed   int64
	PullupCalls     int64
	PullupCopied    int64
	SearchCalls     int64
	CallbackFires   int64
	DeferredBatches int64
}

// Stats returns a snapshot of the buffer's lifetime counters.
func (b *Buffer) Stats() Stats {
	return Stats{
		BytesAdded:      b.counters.bytesAdded.Load(),
		BytesDrained:    b.counters.bytesDrained.Load(),
		SegmentsAlloc:   b.counters.segmentsAlloc.Load(),
		SegmentsFreed:   b.counters.segmentsFreed.Load(),
		PullupCalls:     b.counters.pullupCalls.Load(),
		PullupCopied:    b.counters.pullupCopied.Load(),
		SearchCalls:     b.counters.searchCalls.Load(),
		CallbackFires:   b.counters.callbackFires.Load(),
		DeferredBatches: b.counters.deferredBatches.Load(),
	}
}

// promCollectors is the optional set of Prometheus collectors mirroring
// counters, registered only when WithMetrics is supplied to New.
type promCollectors struct {
	bytesAdded    prometheus.Counter
	bytesDrained  prometheus.Counter
	segmentsAlloc prometheus.Counter
	segmentsFreed prometheus.Counter
	pullupBytes   prometheus.Histogram
}

func newPromCollectors(reg prometheus.Registerer, namespace string) *promCollectors {
	pc := &promCollectors{
		bytesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evbuffer_bytes_added_total",
			Help: "Total bytes appended to the buffer.",
		}),
		bytesDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evbuffer_bytes_drained_total",
			Help: "Total bytes drained from the buffer.",
		}),
		segmentsAlloc: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evbuffer_segments_allocated_total",
			Help: "Total segments allocated.",
		}),
		segmentsFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evbuffer_segments_freed_total",
			Help: "Total segments returned to the pool.",
		}),
		pullupBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "evbuffer_pullup_copied_bytes",
			Help:    "Bytes copied per Pullup call that required copying.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{pc.bytesAdded, pc.bytesDrained, pc.segmentsAlloc, pc.segmentsFreed, pc.pullupBytes} {
		_ = reg.Register(c)
	}
	return pc
}
