package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics exposes the request latency histogram for the API surface.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hodie",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.duration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// SessionMetrics exposes counters for session gate routing decisions.
type SessionMetrics struct {
	decisions       *prometheus.CounterVec
	payloadConsumed prometheus.Counter
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "session",
			Name:      "gate_decisions_total",
			Help:      "Total session gate routing decisions by view",
		}, []string{"view"}),
		payloadConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "session",
			Name:      "signup_payload_consumed_total",
			Help:      "Total comprehensive signup payloads consumed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.decisions, m.payloadConsumed)
	return m
}

func (m *SessionMetrics) ObserveDecision(view string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(view).Inc()
}

func (m *SessionMetrics) ObservePayloadConsumed() {
	if m == nil {
		return
	}
	m.payloadConsumed.Inc()
}

// WizardMetrics exposes counters for booking wizard transitions.
type WizardMetrics struct {
	transitions *prometheus.CounterVec
	closed      prometheus.Counter
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "booking",
			Name:      "wizard_transitions_total",
			Help:      "Total booking wizard transitions by step, action and outcome",
		}, []string{"step", "action", "outcome"}),
		closed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "booking",
			Name:      "wizard_closed_total",
			Help:      "Total booking wizard sessions closed from confirmation",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.closed)
	return m
}

func (m *WizardMetrics) ObserveTransition(step, action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(step, action, outcome).Inc()
}

func (m *WizardMetrics) ObserveClosed() {
	if m == nil {
		return
	}
	m.closed.Inc()
}

// ChartMetrics exposes counters for rendered chart images.
type ChartMetrics struct {
	rendered *prometheus.CounterVec
	swept    prometheus.Counter
}

func NewChartMetrics(reg prometheus.Registerer) *ChartMetrics {
	m := &ChartMetrics{
		rendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "visualization",
			Name:      "charts_rendered_total",
			Help:      "Total chart images rendered by kind",
		}, []string{"kind"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "visualization",
			Name:      "images_swept_total",
			Help:      "Total chart images deleted by retention sweeps",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rendered, m.swept)
	return m
}

func (m *ChartMetrics) ObserveRendered(kind string) {
	if m == nil {
		return
	}
	m.rendered.WithLabelValues(kind).Inc()
}

func (m *ChartMetrics) ObserveSwept(count int) {
	if m == nil {
		return
	}
	m.swept.Add(float64(count))
}

// ProvisioningMetrics exposes counters for AI access provisioning.
type ProvisioningMetrics struct {
	outcomes *prometheus.CounterVec
}

func NewProvisioningMetrics(reg prometheus.Registerer) *ProvisioningMetrics {
	m := &ProvisioningMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hodie",
			Subsystem: "provisioning",
			Name:      "ensure_access_total",
			Help:      "Total EnsureAccess outcomes",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomes)
	return m
}

func (m *ProvisioningMetrics) ObserveEnsure(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
