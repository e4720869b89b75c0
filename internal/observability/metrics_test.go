package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/frame"
	"github.com/danmuck/zjsonctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("node-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordStream("node-a", protocol.RevisionNamed, 30*time.Millisecond, true)
}

func TestDecoderMetricsCountsEvents(t *testing.T) {
	testlog.Start(t)
	m := NewDecoderMetrics("node-count")
	m.ObserveFrame(frame.KindData)
	m.ObserveFrame(frame.KindData)
	m.ObserveFrame(frame.KindWarning)
	m.ObserveValue()
	m.ObserveError(protocol.KindServerReported)
	m.ObserveError("")

	if got := testutil.ToFloat64(decodeFrames.WithLabelValues("node-count", "data")); got != 2 {
		t.Fatalf("expected 2 data frames, got %v", got)
	}
	if got := testutil.ToFloat64(decodeFrames.WithLabelValues("node-count", "warning")); got != 1 {
		t.Fatalf("expected 1 warning frame, got %v", got)
	}
	if got := testutil.ToFloat64(decodeValues.WithLabelValues("node-count")); got != 1 {
		t.Fatalf("expected 1 value, got %v", got)
	}
	if got := testutil.ToFloat64(decodeErrors.WithLabelValues("node-count", "ServerReportedError")); got != 1 {
		t.Fatalf("expected 1 server error, got %v", got)
	}
	if got := testutil.ToFloat64(decodeErrors.WithLabelValues("node-count", "unknown")); got != 1 {
		t.Fatalf("expected unlabeled error counted as unknown, got %v", got)
	}
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	r := NewRouter("node-http", []string{" http://localhost:3000 ", ""})
	NewDecoderMetrics("node-http").ObserveValue()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"node":"node-http"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `zjsonctl_decoder_values_total{node="node-http"}`) {
		t.Fatalf("expected decoder metrics in scrape")
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("node-http", "GET", "/health", "200")); got != 1 {
		t.Fatalf("expected one /health request counted, got %v", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("node-http", "GET", "/missing", "404")); got != 1 {
		t.Fatalf("expected unmatched path counted by raw path, got %v", got)
	}
}

func TestNormalizeOrigins(t *testing.T) {
	got := normalizeOrigins([]string{" a ", "", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected origins %v", got)
	}
}
