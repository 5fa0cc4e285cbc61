package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los collectors de pedigree. Se registran en el Registerer
// recibido (en tests, un prometheus.NewRegistry() propio).
type Metrics struct {
	Operations          *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
	PlaceholdersCreated prometheus.Counter
	PlaceholdersReclaim prometheus.Counter
	Inconsistencies     *prometheus.CounterVec
	Repairs             *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedigree_operations_total",
			Help: "Pedigree relationship operations by operation and result",
		}, []string{"op", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedigree_operation_duration_seconds",
			Help:    "Latency of pedigree relationship operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		PlaceholdersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pedigree_placeholders_created_total",
			Help: "Placeholder pets created to anchor an edge",
		}),
		PlaceholdersReclaim: f.NewCounter(prometheus.CounterOpts{
			Name: "pedigree_placeholders_reclaimed_total",
			Help: "Orphaned placeholder pets deleted",
		}),
		Inconsistencies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedigree_inconsistencies_total",
			Help: "One-sided or dangling references detected on read",
		}, []string{"kind"}),
		Repairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedigree_repairs_total",
			Help: "Edges fixed by the repair pass, by action",
		}, []string{"action"}),
	}
}

// Nop registra en un registry descartable.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveOp registra resultado + latencia de una operación.
func (m *Metrics) ObserveOp(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
