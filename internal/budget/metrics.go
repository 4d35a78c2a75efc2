package budget

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger activity. A nil receiver disables collection, which
// keeps service tests free of registry setup.
type Metrics struct {
	TransactionsTotal  *prometheus.CounterVec
	AmountSpent        prometheus.Counter
	OverdraftsRejected prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		TransactionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gramsuvidha_ledger_transactions_total",
			Help: "Ledger transactions recorded, by category",
		}, []string{"category"}),

		AmountSpent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gramsuvidha_ledger_amount_spent_total",
			Help: "Cumulative amount recorded as spent across all budgets",
		}),

		OverdraftsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gramsuvidha_ledger_overdrafts_rejected_total",
			Help: "Transactions rejected for exceeding the remaining allocation",
		}),
	}
}

func (m *Metrics) recordTransaction(c Category, amount float64) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(string(c)).Inc()
	m.AmountSpent.Add(amount)
}

func (m *Metrics) recordOverdraft() {
	if m == nil {
		return
	}
	m.OverdraftsRejected.Inc()
}
