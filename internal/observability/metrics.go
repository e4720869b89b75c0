package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/frame"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zjsonctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zjsonctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	decodeFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zjsonctl",
			Subsystem: "decoder",
			Name:      "frames_total",
			Help:      "Frames consumed by stream decoders, by frame kind.",
		},
		[]string{"node", "kind"},
	)
	decodeValues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zjsonctl",
			Subsystem: "decoder",
			Name:      "values_total",
			Help:      "Native values produced by stream decoders.",
		},
		[]string{"node"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zjsonctl",
			Subsystem: "decoder",
			Name:      "errors_total",
			Help:      "Terminal stream errors, by error kind.",
		},
		[]string{"node", "kind"},
	)
	streamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zjsonctl",
			Subsystem: "decoder",
			Name:      "stream_duration_seconds",
			Help:      "Wall time spent decoding one stream.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "revision", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, decodeFrames, decodeValues, decodeErrors, streamDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordStream(node string, rev protocol.Revision, duration time.Duration, success bool) {
	RegisterMetrics()
	streamDuration.WithLabelValues(node, rev.String(), strconv.FormatBool(success)).Observe(duration.Seconds())
}

// DecoderMetrics feeds stream decoder events into the process metrics. It
// satisfies stream.Observer.
type DecoderMetrics struct {
	node string
}

func NewDecoderMetrics(node string) *DecoderMetrics {
	RegisterMetrics()
	return &DecoderMetrics{node: node}
}

func (m *DecoderMetrics) ObserveFrame(kind frame.Kind) {
	decodeFrames.WithLabelValues(m.node, kind.String()).Inc()
}

func (m *DecoderMetrics) ObserveValue() {
	decodeValues.WithLabelValues(m.node).Inc()
}

func (m *DecoderMetrics) ObserveError(kind protocol.Kind) {
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	decodeErrors.WithLabelValues(m.node, label).Inc()
}
