package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grocery_api",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of successfully placed orders",
		},
	)

	ordersPlacedFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grocery_api",
			Subsystem: "orders",
			Name:      "placement_failed_total",
			Help:      "Total number of failed order placement attempts",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersPlaced,
		ordersPlacedFailed,
	)
}
