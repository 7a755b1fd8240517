package persistence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 加载结果
const (
	outcomeLoaded      = "loaded"
	outcomeMigrated    = "migrated"
	outcomeAbsent      = "absent"
	outcomeUnavailable = "storage_unavailable"
	outcomeCorrupt     = "corrupt"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_persistence_writes_total",
		Help: "Total number of document writes by result",
	}, []string{"result"})

	coalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garage_persistence_coalesced_total",
		Help: "Total number of snapshots superseded before they were written",
	})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_persistence_loads_total",
		Help: "Total number of document loads by outcome",
	}, []string{"outcome"})

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "garage_persistence_write_duration_seconds",
		Help:    "Duration of document writes",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})
)
