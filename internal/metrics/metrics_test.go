package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectors_NilIsNoop(t *testing.T) {
	var c *Collectors

	// Must not panic.
	c.Event("tickPrice")
	c.Duplicate("orderStatus")
	c.Discarded("rt_volume_parse")
	c.Notification("order")
	c.HandlerPanic()
	c.SeriesFlushed("csv", 2)
	c.SinkError("postgres")
	c.SubscriptionIDs(3)
	c.QueueDepth("notify", 1)
	c.GatewayError("200")
}

func TestCollectors_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Event("tickPrice")
	c.Event("tickPrice")
	c.Duplicate("openOrder")
	c.SeriesFlushed("csv", 3)
	c.SubscriptionIDs(4)

	out := scrape(t, reg)
	for _, want := range []string{
		`ibmirror_events_total{kind="tickPrice"} 2`,
		`ibmirror_duplicate_events_total{kind="openOrder"} 1`,
		`ibmirror_history_series_flushed_total{sink="csv"} 3`,
		`ibmirror_subscription_ids 4`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.Notification("order")

	out := scrape(t, reg)
	if !strings.Contains(out, `ibmirror_notifications_total{kind="order"} 1`) {
		t.Errorf("metrics output missing notification counter:\n%s", out)
	}
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	return rec.Body.String()
}
