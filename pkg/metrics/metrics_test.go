package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RegistersOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("clinic", reg)

	c.TransitionsTotal.WithLabelValues("start", "ok").Inc()
	c.TransitionsTotal.WithLabelValues("start", "ok").Inc()

	if got := testutil.ToFloat64(c.TransitionsTotal.WithLabelValues("start", "ok")); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}

	// a second collector on its own registry must not panic
	NewCollector("clinic", prometheus.NewRegistry())
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("clinic", reg)
	c.AppointmentsBooked.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "clinic_booking_appointments_booked_total 1") {
		t.Errorf("booked counter missing from output")
	}
}
