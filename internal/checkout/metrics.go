package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "sessions_opened_total",
		Help:      "Checkout sessions opened.",
	})
	initiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "payments_initiated_total",
		Help:      "Payments accepted by the remote API, by method.",
	}, []string{"method"})
	outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "outcomes_total",
		Help:      "Checkout attempts by final outcome.",
	}, []string{"outcome"})
	cancels = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "timeout_cancels_total",
		Help:      "Cancellations issued after a verification timeout, by result.",
	}, []string{"result"})
	polls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "status_polls_total",
		Help:      "Payment status queries sent.",
	})
	active = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "polling_flows",
		Help:      "Flows currently polling for payment status.",
	})
	timeToVerify = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "inkcopilot",
		Subsystem: "checkout",
		Name:      "time_to_verify_seconds",
		Help:      "Time from initiation to a paid status.",
		Buckets:   []float64{1, 3, 6, 9, 12, 15},
	})
)
