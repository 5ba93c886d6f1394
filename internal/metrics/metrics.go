package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking core.
type BookingMetrics struct {
	claimsTotal    *prometheus.CounterVec
	lifecycleTotal *prometheus.CounterVec
	claimLatency   prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		claimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "claims_total",
			Help:      "Total slot claim attempts by outcome",
		}, []string{"outcome"}),
		lifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "lifecycle_total",
			Help:      "Total booking lifecycle transitions",
		}, []string{"transition"}),
		claimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "booking",
			Name:      "claim_latency_seconds",
			Help:      "Latency of the claim protocol end to end",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.claimsTotal, m.lifecycleTotal, m.claimLatency)
	return m
}

func (m *BookingMetrics) ObserveClaim(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.claimsTotal.WithLabelValues(outcome).Inc()
	m.claimLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveLifecycle(transition string) {
	if m == nil {
		return
	}
	m.lifecycleTotal.WithLabelValues(transition).Inc()
}
