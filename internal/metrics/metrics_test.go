package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve_Outcomes(t *testing.T) {
	m := New()
	start := time.Now()
	m.Observe("link", start, true, nil)
	m.Observe("link", start, false, nil)
	m.Observe("link", start, false, nil)
	m.Observe("link", start, true, errors.New("boom"))

	if got := testutil.ToFloat64(m.Lookups.WithLabelValues("link", OutcomeFound)); got != 1 {
		t.Fatalf("expected 1 found, got %v", got)
	}
	if got := testutil.ToFloat64(m.Lookups.WithLabelValues("link", OutcomeNotFound)); got != 2 {
		t.Fatalf("expected 2 not found, got %v", got)
	}
	if got := testutil.ToFloat64(m.Lookups.WithLabelValues("link", OutcomeError)); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe("link", time.Now(), true, nil)
	m.Message("annotate_queue", "ok")
	m.Annotated(3)
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.Annotated(5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "linker_annotated_mentions_total 5") {
		t.Fatalf("expected annotated counter in output, got:\n%s", rec.Body.String())
	}
}
