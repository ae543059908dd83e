// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StreamEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_stream_events_total",
			Help: "Total number of decoded events received on the customer event stream",
		},
		[]string{"type"},
	)

	StreamEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_stream_events_dropped_total",
			Help: "Total number of stream events dropped before dispatch",
		},
		[]string{"reason"},
	)

	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_stream_reconnects_total",
			Help: "Total number of event stream reconnection attempts",
		},
	)

	Resyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_resyncs_total",
			Help: "Total number of application re-fetches triggered by pushed events",
		},
	)

	NotificationsShown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_shown_total",
			Help: "Total number of notifications shown to the customer",
		},
		[]string{"severity"},
	)

	ApplicationFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_application_fetches_total",
			Help: "Total number of application fetches by result",
		},
		[]string{"result"},
	)

	PaymentSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_sessions_total",
			Help: "Total number of ended payment sessions by outcome",
		},
		[]string{"outcome"},
	)

	PaymentSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_payment_sessions_active",
			Help: "Number of payment sessions currently counting down",
		},
	)
)

// Drop reasons for StreamEventsDropped.
const (
	DropDecode   = "decode"
	DropClosed   = "closed"
	DropOversize = "oversize"
)
