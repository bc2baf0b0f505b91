// Package metrics exposes Prometheus counters for the order pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	OrdersPlaced        *prometheus.CounterVec
	OrdersCancelled     prometheus.Counter
	RefundsIssued       prometheus.Counter
	FulfillmentFailures prometheus.Counter
	CheckoutRejected    *prometheus.CounterVec
}

// New registers the pipeline metrics on the default registerer.
func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

// NewUnregistered builds metrics on a private registry, for tests.
func NewUnregistered() *Metrics {
	return newWithRegisterer(prometheus.NewRegistry())
}

func newWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders successfully placed, by payment method.",
		}, []string{"payment_method"}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Orders cancelled by customers or admins.",
		}),
		RefundsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_refunds_issued_total",
			Help: "Refunds issued through the payment gateway.",
		}),
		FulfillmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_fulfillment_failures_total",
			Help: "Fulfillment attempts that stopped before pickup was scheduled.",
		}),
		CheckoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_rejected_total",
			Help: "Checkouts rejected before an order was created, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.OrdersPlaced,
		m.OrdersCancelled,
		m.RefundsIssued,
		m.FulfillmentFailures,
		m.CheckoutRejected,
	)
	return m
}
