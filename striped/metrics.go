package striped

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of striped reads.
type Metrics struct {
	RowsRead   prometheus.Counter
	ShardReads *prometheus.CounterVec
	ReadErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rowsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cosmohdf5_rows_read_total",
		Help: "Total rows assembled by striped reads",
	})

	shardReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cosmohdf5_shard_reads_total",
		Help: "Segments read per shard",
	}, []string{"shard"})

	readErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cosmohdf5_read_errors_total",
		Help: "Failed striped reads by error kind",
	}, []string{"kind"})

	reg.MustRegister(rowsRead, shardReads, readErrors)

	return &Metrics{
		RowsRead:   rowsRead,
		ShardReads: shardReads,
		ReadErrors: readErrors,
	}
}

func (m *Metrics) segment(shard int) {
	if m == nil {
		return
	}
	m.ShardReads.WithLabelValues(strconv.Itoa(shard)).Inc()
}

func (m *Metrics) rows(n int) {
	if m == nil {
		return
	}
	m.RowsRead.Add(float64(n))
}

func (m *Metrics) failure(err error) {
	if m == nil {
		return
	}
	m.ReadErrors.WithLabelValues(errorKind(err)).Inc()
}
