package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsStarted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "bookings_started_total", Help: "Total bookings started"})
	BookingsEnded   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "bookings_ended_total", Help: "Total bookings ended by the user"})
	BookingsStopped = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "bookings_stopped_total", Help: "Total bookings stopped due to insufficient balance"})

	ChargesApplied  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "charges_applied_total", Help: "Total per-minute charges applied to the wallet"})
	ChargesRejected = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "charges_rejected_total", Help: "Total charges rejected for insufficient balance"})
	ChargeFailures  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "charge_failures_total", Help: "Total transient charge call failures (cycle skipped)"})

	TopUpsTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "park_wallet", Name: "topups_total", Help: "Total wallet top-ups"})
	WalletBalance  = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "park_wallet", Name: "wallet_balance_ada", Help: "Current wallet balance in ADA"})
	ActiveBookings = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "park_wallet", Name: "active_bookings", Help: "Number of bookings currently billed"})
)
