package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ibmirror"

// Collectors bundles every metric the mirror records.
type Collectors struct {
	events          *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	discarded       *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	handlerPanics   prometheus.Counter
	seriesFlushed   *prometheus.CounterVec
	sinkErrors      *prometheus.CounterVec
	subscriptionIDs prometheus.Gauge
	queueDepth      *prometheus.GaugeVec
	gatewayErrors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collectors{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Gateway events classified, by kind.",
		}, []string{"kind"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_events_total",
			Help:      "Duplicate gateway events suppressed, by kind.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_events_total",
			Help:      "Gateway events dropped without a state change, by reason.",
		}, []string{"reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications delivered to the application handler, by kind.",
		}, []string{"kind"}),
		handlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Panics recovered from the notification handler.",
		}),
		seriesFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_series_flushed_total",
			Help:      "Finished historical series written, by sink.",
		}, []string{"sink"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_sink_errors_total",
			Help:      "Historical series write failures, by sink.",
		}, []string{"sink"}),
		subscriptionIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscription_ids",
			Help:      "Subscription ids allocated by the registry.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Items waiting in internal queues, by queue.",
		}, []string{"queue"}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Error events reported by the gateway, by code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		c.events,
		c.duplicates,
		c.discarded,
		c.notifications,
		c.handlerPanics,
		c.seriesFlushed,
		c.sinkErrors,
		c.subscriptionIDs,
		c.queueDepth,
		c.gatewayErrors,
	)
	return c
}

// Handler serves the metrics in g over HTTP.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (c *Collectors) Event(kind string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(kind).Inc()
}

func (c *Collectors) Duplicate(kind string) {
	if c == nil {
		return
	}
	c.duplicates.WithLabelValues(kind).Inc()
}

func (c *Collectors) Discarded(reason string) {
	if c == nil {
		return
	}
	c.discarded.WithLabelValues(reason).Inc()
}

func (c *Collectors) Notification(kind string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(kind).Inc()
}

func (c *Collectors) HandlerPanic() {
	if c == nil {
		return
	}
	c.handlerPanics.Inc()
}

func (c *Collectors) SeriesFlushed(sink string, n int) {
	if c == nil {
		return
	}
	c.seriesFlushed.WithLabelValues(sink).Add(float64(n))
}

func (c *Collectors) SinkError(sink string) {
	if c == nil {
		return
	}
	c.sinkErrors.WithLabelValues(sink).Inc()
}

func (c *Collectors) SubscriptionIDs(n int) {
	if c == nil {
		return
	}
	c.subscriptionIDs.Set(float64(n))
}

func (c *Collectors) QueueDepth(queue string, n int) {
	if c == nil {
		return
	}
	c.queueDepth.WithLabelValues(queue).Set(float64(n))
}

func (c *Collectors) GatewayError(code string) {
	if c == nil {
		return
	}
	c.gatewayErrors.WithLabelValues(code).Inc()
}
