package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/morezero/intents/pkg/intent"
	"github.com/morezero/intents/pkg/resolver"
)

func TestInstrumentProbe_CountsResults(t *testing.T) {
	answers := map[intent.Verb]bool{intent.VerbDial: true, intent.VerbCall: false}
	boom := errors.New("probe down")
	inner := resolver.ProbeFunc(func(_ context.Context, req intent.Request) (bool, error) {
		if req.Verb == intent.VerbPick {
			return false, boom
		}
		return answers[req.Verb], nil
	})
	p := InstrumentProbe(inner)

	before := map[string]float64{
		ResultAvailable:   testutil.ToFloat64(probeCallsTotal.WithLabelValues(string(intent.VerbDial), ResultAvailable)),
		ResultUnavailable: testutil.ToFloat64(probeCallsTotal.WithLabelValues(string(intent.VerbCall), ResultUnavailable)),
		ResultError:       testutil.ToFloat64(probeCallsTotal.WithLabelValues(string(intent.VerbPick), ResultError)),
	}

	ctx := context.Background()
	if ok, err := p.Available(ctx, intent.Dial("1")); !ok || err != nil {
		t.Errorf("metrics:metrics_test - dial: got %v, %v", ok, err)
	}
	if ok, err := p.Available(ctx, intent.Request{Verb: intent.VerbCall}); ok || err != nil {
		t.Errorf("metrics:metrics_test - call: got %v, %v", ok, err)
	}
	if _, err := p.Available(ctx, intent.SelectPicture()); !errors.Is(err, boom) {
		t.Errorf("metrics:metrics_test - expected error to pass through, got %v", err)
	}

	checks := []struct {
		verb   intent.Verb
		result string
	}{
		{intent.VerbDial, ResultAvailable},
		{intent.VerbCall, ResultUnavailable},
		{intent.VerbPick, ResultError},
	}
	for _, c := range checks {
		got := testutil.ToFloat64(probeCallsTotal.WithLabelValues(string(c.verb), c.result))
		if got != before[c.result]+1 {
			t.Errorf("metrics:metrics_test - %s/%s counter = %v, want %v", c.verb, c.result, got, before[c.result]+1)
		}
	}
}

func TestRecordResolutionAndDispatch(t *testing.T) {
	before := testutil.ToFloat64(resolutionsTotal.WithLabelValues(string(resolver.StateExhausted)))
	RecordResolution(resolver.StateExhausted)
	if got := testutil.ToFloat64(resolutionsTotal.WithLabelValues(string(resolver.StateExhausted))); got != before+1 {
		t.Errorf("metrics:metrics_test - resolutions = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(dispatchRequestsTotal.WithLabelValues("build", "ok"))
	RecordDispatch("build", "ok", 5*time.Millisecond)
	if got := testutil.ToFloat64(dispatchRequestsTotal.WithLabelValues("build", "ok")); got != before+1 {
		t.Errorf("metrics:metrics_test - dispatch = %v, want %v", got, before+1)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordDispatch("health", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("metrics:metrics_test - status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "intents_dispatch_requests_total") {
		t.Error("metrics:metrics_test - expected intents_dispatch_requests_total in output")
	}
}
