package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemorySinkRecordsInOrder(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	sink.Emit(ctx, EventSessionOpen, map[string]interface{}{"session_id": "s-1"})
	sink.RecordRequest(ctx, "tools/call", "ok", 5*time.Millisecond)
	sink.Emit(ctx, EventSessionClose, map[string]interface{}{"session_id": "s-1"})

	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Kind != EventSessionOpen || events[2].Kind != EventSessionClose {
		t.Errorf("events out of order: %v", events)
	}

	requests := sink.EventsOfKind(EventRequest)
	if len(requests) != 1 {
		t.Fatalf("expected 1 request event, got %d", len(requests))
	}
	if requests[0].Attrs["method"] != "tools/call" || requests[0].Attrs["status"] != "ok" {
		t.Errorf("request attrs wrong: %v", requests[0].Attrs)
	}
}

func TestMemorySinkConcurrentEmit(t *testing.T) {
	sink := NewMemorySink()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.Emit(context.Background(), EventNotification, nil)
			}
		}()
	}
	wg.Wait()

	if got := len(sink.Events()); got != 1000 {
		t.Errorf("expected 1000 events, got %d", got)
	}
}

func TestPrometheusSinkSessionGauge(t *testing.T) {
	sink, err := NewPrometheusSink(MetricsConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	ctx := context.Background()

	sink.Emit(ctx, EventSessionOpen, nil)
	sink.Emit(ctx, EventSessionOpen, nil)
	sink.Emit(ctx, EventSessionClose, nil)

	if got := testutil.ToFloat64(sink.activeSessions); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}
}

func TestPrometheusSinkRequestCounter(t *testing.T) {
	sink, err := NewPrometheusSink(MetricsConfig{})
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	ctx := context.Background()

	sink.RecordRequest(ctx, "ping", "ok", time.Millisecond)
	sink.RecordRequest(ctx, "ping", "ok", 2*time.Millisecond)
	sink.RecordRequest(ctx, "ping", "error", time.Millisecond)

	if got := testutil.ToFloat64(sink.requestTotal.WithLabelValues("ping", "ok")); got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(sink.requestTotal.WithLabelValues("ping", "error")); got != 1 {
		t.Errorf("expected 1 error request, got %v", got)
	}
}

func TestPrometheusSinkRejectsDoubleRegistration(t *testing.T) {
	cfg := MetricsConfig{}
	first, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}

	// Reusing the same registry must fail instead of silently aliasing.
	if _, err := NewPrometheusSink(MetricsConfig{Registry: first.Registry()}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
