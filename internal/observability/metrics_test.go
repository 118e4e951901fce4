package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(callRequests.WithLabelValues("s1", "api.duty.reward", OutcomeOK))
	RecordCall("s1", "api.duty.reward", OutcomeOK, 12*time.Millisecond)
	RecordPacketBytes("request", 128)

	after := testutil.ToFloat64(callRequests.WithLabelValues("s1", "api.duty.reward", OutcomeOK))
	if after != before+1 {
		t.Fatalf("expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestRequestLoggerCountsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: RequestLogger(zerolog.Nop(), nil)}
	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	got := testutil.ToFloat64(httpRequests.WithLabelValues(req.URL.Host, http.MethodPost, "418"))
	if got != 1 {
		t.Fatalf("expected 1 request counted, got %v", got)
	}
}
