package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters for the intake state machine and booking flow.
type IntakeMetrics struct {
	actionsTotal     *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "actions_total",
			Help:      "Total actions handled by the intake state machine",
		}, []string{"action", "outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "stage_transitions_total",
			Help:      "Stage changes performed by the intake state machine",
		}, []string{"from", "to"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "bookings_total",
			Help:      "Booking finalization attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.actionsTotal, m.transitionsTotal, m.bookingsTotal)
	return m
}

func (m *IntakeMetrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *IntakeMetrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *IntakeMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

// CalendarMetrics tracks calls made against the external calendar.
type CalendarMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCalendarMetrics(reg prometheus.Registerer) *CalendarMetrics {
	m := &CalendarMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "calendar",
			Name:      "requests_total",
			Help:      "Calendar gateway requests",
		}, []string{"operation", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "calendar",
			Name:      "request_seconds",
			Help:      "Latency of calendar gateway requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *CalendarMetrics) ObserveRequest(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}
