// Package metrics exposes the cafe's operational counters to Prometheus.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_sessions_started_total",
		Help: "Table sessions started, by booking type and source.",
	}, []string{"booking_type", "source"})

	SessionsStopped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_sessions_stopped_total",
		Help: "Table sessions ended, by outcome (billed, released).",
	}, []string{"outcome"})

	BillsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_bills_created_total",
		Help: "Bills created, by booking type and payment method.",
	}, []string{"booking_type", "payment_method"})

	BilledAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_billed_amount_total",
		Help: "Sum of bill totals before advance payments.",
	})

	AutoBills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_auto_bills_total",
		Help: "Timer sessions billed automatically at expiry.",
	})

	ReservationsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_reservations_triggered_total",
		Help: "Reservations that started a session automatically.",
	})

	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_reservation_conflicts_total",
		Help: "Reservation conflicts found, by whether the caller overrode them.",
	}, []string{"overridden"})

	RunningSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_running_sessions",
		Help: "Sessions running at the last auto-bill scan.",
	})
)

// Handler serves /metrics on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
