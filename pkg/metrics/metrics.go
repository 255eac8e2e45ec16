package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pdv"

// Métricas do servidor
var (
	SalesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "sales_recorded_total",
		Help:      "Vendas aceitas e gravadas no livro-razão",
	})

	SalesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "sales_replayed_total",
		Help:      "Vendas repetidas com chave de idempotência já registrada",
	})

	SalesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "sales_rejected_total",
		Help:      "Vendas rejeitadas por motivo",
	}, []string{"reason"})
)

// Métricas do terminal
var (
	PendingOperations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "terminal",
		Name:      "pending_operations",
		Help:      "Operações ainda não sincronizadas na fila local",
	})

	Online = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "terminal",
		Name:      "online",
		Help:      "1 quando o terminal está conectado ao servidor",
	})

	Drains = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "drains_total",
		Help:      "Execuções de sincronização por resultado",
	}, []string{"result"})

	ReplayedOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "operations_total",
		Help:      "Operações reenviadas ao servidor por resultado",
	}, []string{"result"})

	DrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "drain_duration_seconds",
		Help:      "Duração de cada execução de sincronização",
		Buckets:   prometheus.DefBuckets,
	})
)
