package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking engine.
type BookingMetrics struct {
	submissions    *prometheus.CounterVec
	appointments   prometheus.Counter
	payments       *prometheus.CounterVec
	ledgerWarnings prometheus.Counter
	submitLatency  prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		appointments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "booking",
			Name:      "appointments_written_total",
			Help:      "Appointment documents created or overwritten",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "booking",
			Name:      "payments_total",
			Help:      "Paid-marking requests by outcome",
		}, []string{"outcome"}),
		ledgerWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "booking",
			Name:      "ledger_warnings_total",
			Help:      "Paid markings whose ledger income line could not be written",
		}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tutora",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of booking submissions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.appointments, m.payments, m.ledgerWarnings, m.submitLatency)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string, written int, seconds float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	if written > 0 {
		m.appointments.Add(float64(written))
	}
	m.submitLatency.Observe(seconds)
}

func (m *BookingMetrics) ObservePayment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveLedgerWarning() {
	if m == nil {
		return
	}
	m.ledgerWarnings.Inc()
}

// NotifyMetrics counts outbound reminder and email traffic.
type NotifyMetrics struct {
	sends *prometheus.CounterVec
}

func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	m := &NotifyMetrics{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Outbound notifications by channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sends)
	return m
}

func (m *NotifyMetrics) ObserveSend(channel, status string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(channel, status).Inc()
}

// RPCMetrics records gRPC handler outcomes.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewRPCMetrics(reg prometheus.Registerer) *RPCMetrics {
	m := &RPCMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutora",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Handled RPCs by method and status code",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tutora",
			Subsystem: "grpc",
			Name:      "request_latency_seconds",
			Help:      "RPC handling latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

func (m *RPCMetrics) ObserveRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.latency.WithLabelValues(method).Observe(seconds)
}
