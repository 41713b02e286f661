package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery_api",
		Subsystem: "notifications",
		Name:      "jobs_enqueued_total",
		Help:      "Total number of notification jobs enqueued.",
	}, []string{"kind"})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery_api",
		Subsystem: "notifications",
		Name:      "jobs_processed_total",
		Help:      "Total number of notification jobs processed successfully.",
	}, []string{"kind"})

	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery_api",
		Subsystem: "notifications",
		Name:      "jobs_failed_total",
		Help:      "Total number of notification jobs that ended with an error result.",
	}, []string{"kind"})

	jobsDLQ = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grocery_api",
		Subsystem: "notifications",
		Name:      "jobs_dlq_total",
		Help:      "Total number of poison messages written to the DLQ.",
	})

	smsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grocery_api",
		Subsystem: "notifications",
		Name:      "sms_sent_total",
		Help:      "Total number of SMS messages delivered to the gateway.",
	})
)
