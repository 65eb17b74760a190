package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerAcceptsAllLevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown-defaults-to-info"} {
		for _, format := range []string{"json", "text", "unknown-defaults-to-json"} {
			l := NewLogger(level, format)
			if l == nil {
				t.Fatalf("NewLogger(%q, %q) returned nil", level, format)
			}
		}
	}
}

func TestMetricsHandlerServesRegisteredSeries(t *testing.T) {
	m := New()
	m.SetPlayersConnected(3)
	m.ObserveTick(5 * time.Millisecond)
	m.SetChunkQueueDepth(12)
	m.SetLightQueueSize(7)
	m.IncPackets("inbound")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"bridge_players_connected 3",
		"bridge_chunk_worker_queue_depth 12",
		"bridge_light_propagation_queue_size 7",
		`bridge_packets_total{direction="inbound"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}
