package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entregas_orders_placed_total",
		Help: "Total number of orders placed by clients.",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entregas_order_transitions_total",
		Help: "Total number of order status transitions, labeled by the status entered.",
	},
		[]string{"status"},
	)

	OrdersExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entregas_orders_expired_total",
		Help: "Total number of pending orders auto-rejected after the acceptance window.",
	})

	NotificationsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entregas_notifications_published_total",
		Help: "Total number of notifications published on the bus.",
	})

	ListenerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entregas_listener_panics_total",
		Help: "Total number of bus listener panics that were isolated.",
	})

	ActiveSimulators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "entregas_active_simulators",
		Help: "Number of position simulators currently ticking.",
	})

	ActiveOrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "entregas_active_order_cache_items",
		Help: "Current number of orders held in the active-order cache.",
	})
)
