package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics holds business counters. A nil *Metrics records nothing.
type Metrics struct {
	placed      prometheus.Counter
	revenue     prometheus.Counter
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	payments    prometheus.Counter
}

// NewMetrics registers the order counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total", Help: "Orders placed.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_revenue_total", Help: "Sum of placed order totals.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total", Help: "Order status changes by target status.",
		}, []string{"status"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_rejected_total", Help: "Checkouts rejected before an order was written.",
		}, []string{"reason"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_confirmed_total", Help: "Transactions moved to success by the payment consumer.",
		}),
	}
	reg.MustRegister(m.placed, m.revenue, m.transitions, m.rejected, m.payments)
	return m
}

func (m *Metrics) orderPlaced(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.placed.Inc()
	m.revenue.Add(total.InexactFloat64())
}

func (m *Metrics) transitioned(status string) {
	if m != nil {
		m.transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) checkoutRejected(reason string) {
	if m != nil {
		m.rejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) paymentConfirmed() {
	if m != nil {
		m.payments.Inc()
	}
}
