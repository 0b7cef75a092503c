package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

func TestSyncResultLabel(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, SyncResultOK},
		{fmt.Errorf("push: %w", domain.ErrSyncRejected), SyncResultRejected},
		{fmt.Errorf("push: %w", domain.ErrSyncHTTPStatus), SyncResultHTTPStatus},
		{domain.ErrSyncTransport, SyncResultTransport},
		{domain.ErrSyncMalformedResponse, SyncResultMalformed},
		{domain.ErrSyncCircuitOpen, SyncResultCircuitOpen},
		{errors.New("boom"), SyncResultError},
	}

	for _, tc := range cases {
		if got := SyncResultLabel(tc.err); got != tc.want {
			t.Errorf("SyncResultLabel(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestCartMetrics_RecordSync(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCartMetricsWithRegisterer(registry)

	m.RecordSyncStarted()
	m.RecordSyncStarted()
	if got := testutil.ToFloat64(m.syncInFlight); got != 2 {
		t.Fatalf("expected 2 in flight, got %v", got)
	}

	m.RecordSyncFinished(nil, 10*time.Millisecond)
	m.RecordSyncFinished(domain.ErrSyncRejected, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.syncInFlight); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.syncTotal.WithLabelValues(SyncResultOK)); got != 1 {
		t.Fatalf("expected 1 ok sync, got %v", got)
	}
	if got := testutil.ToFloat64(m.syncTotal.WithLabelValues(SyncResultRejected)); got != 1 {
		t.Fatalf("expected 1 rejected sync, got %v", got)
	}
}

func TestCartMetrics_RecordMutation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewCartMetricsWithRegisterer(registry)

	m.RecordMutation("add", 3)
	m.RecordMutation("add", 4)

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("add")); got != 2 {
		t.Fatalf("expected 2 add mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.cartItems); got != 4 {
		t.Fatalf("expected cart items gauge 4, got %v", got)
	}
}

func TestCartMetrics_ReRegisterReturnsExisting(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewCartMetricsWithRegisterer(registry)
	second := NewCartMetricsWithRegisterer(registry)

	first.RecordMutation("clear", 0)
	if got := testutil.ToFloat64(second.mutations.WithLabelValues("clear")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestCartMetrics_NilSafe(t *testing.T) {
	var m *CartMetrics
	m.RecordSyncStarted()
	m.RecordSyncFinished(nil, time.Millisecond)
	m.RecordMutation("add", 1)
}

func TestMirrorMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMirrorMetricsWithRegisterer(registry)

	m.RecordSave("ok", 2)
	m.RecordSave("invalid", 0)
	m.RecordEvent(nil)
	m.RecordEvent(errors.New("broker down"))
	m.RecordRateLimited()

	if got := testutil.ToFloat64(m.saves.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok save, got %v", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed event, got %v", got)
	}
	if got := testutil.ToFloat64(m.rateLimited); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}
