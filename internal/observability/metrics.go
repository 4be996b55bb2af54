package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "firelinx"

// Metrics holds the Prometheus counters, histograms, and gauges of the bot.
type Metrics struct {
	MessagesHandled *prometheus.CounterVec // labels: kind={command,link,image,reply,other}
	Extractions     *prometheus.CounterVec // labels: source={link,image}, outcome={success,unresolvable,failed}
	AlertsPublished *prometheus.CounterVec // labels: outcome={delivered,failed}
	PublishDuration prometheus.Histogram
	ActiveSessions  prometheus.Gauge
	SOSDispatch     *prometheus.CounterVec // labels: channel={sms,email}, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesHandled,
		m.Extractions,
		m.AlertsPublished,
		m.PublishDuration,
		m.ActiveSessions,
		m.SOSDispatch,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound chat messages by kind.",
		}, []string{"kind"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Coordinate extraction attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Alert publish attempts by outcome.",
		}, []string{"outcome"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of the single broker send per alert.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Conversations with a report in progress.",
		}),
		SOSDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sos_dispatch_total",
			Help:      "SOS notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
}

// Value sums the current value of every counter or gauge sample of c.
func Value(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var total float64
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			continue
		}
		switch {
		case pb.Counter != nil:
			total += pb.Counter.GetValue()
		case pb.Gauge != nil:
			total += pb.Gauge.GetValue()
		}
	}
	return total
}
