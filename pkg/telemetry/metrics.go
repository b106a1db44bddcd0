// Package telemetry exposes Prometheus instrumentation for the POS engine
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreMutations counts in-memory store mutations by collection and operation
	StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_store_mutations_total",
		Help: "Total number of in-memory store mutations",
	}, []string{"collection", "op"})

	// PersistFailures counts durable writes that failed after the in-memory
	// mutation was already applied
	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_persist_failures_total",
		Help: "Total number of best-effort persistence failures",
	}, []string{"collection"})

	// RemoteRequests counts calls against the remote data source
	RemoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_remote_requests_total",
		Help: "Total number of remote data source requests",
	}, []string{"method", "status"})

	// OrdersCreated counts orders committed through the order engine
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Total number of orders created",
	})
)
