package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters for contact form submissions.
type IntakeMetrics struct {
	submissionsTotal *prometheus.CounterVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "knitec",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total contact form submissions",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal)
	return m
}

// ObserveSubmission records one submission outcome: accepted, rejected, or error.
func (m *IntakeMetrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(result).Inc()
}

// ChatMetrics exposes counters/histograms for questionnaire chat turns.
type ChatMetrics struct {
	turnsTotal   *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "knitec",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns processed",
		}, []string{"status"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "knitec",
			Subsystem: "chat",
			Name:      "model_latency_seconds",
			Help:      "Latency of hosted model completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.modelLatency)
	return m
}

// ObserveTurn records one chat turn outcome: ok, model_error, or storage_error.
func (m *ChatMetrics) ObserveTurn(status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveModelLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(status).Observe(seconds)
}
