package store

import (
	"context"
	"time"

	"pos_client/internal/alert"
	"pos_client/pkg/concurrency"
	"pos_client/pkg/logging"
	"pos_client/pkg/telemetry"
)

const persistTimeout = 30 * time.Second

// PersistQueue applies durable writes after the in-memory mutation has already
// been committed and published. This is the best-effort persistence contract:
// a failed write is reported through the alert side channel and the failure
// counter, and the in-memory state is NOT rolled back. A future implementation
// may add compensating rollback behind this type without touching callers.
type PersistQueue struct {
	pool   *concurrency.WorkerPool
	alerts *alert.Manager
	logger logging.Logger
}

// NewPersistQueue creates a persistence queue. Workers should be 1 unless the
// caller can tolerate reordered durable writes.
func NewPersistQueue(workers, queueDepth int, alerts *alert.Manager, logger logging.Logger) *PersistQueue {
	pool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "persist",
		MaxWorkers:  workers,
		MaxCapacity: queueDepth,
	}, logger)

	return &PersistQueue{
		pool:   pool,
		alerts: alerts,
		logger: logger.WithField("component", "persist_queue"),
	}
}

// Enqueue schedules a durable write. The caller does not wait for it.
func (q *PersistQueue) Enqueue(collection, op string, write func(ctx context.Context) error) {
	err := q.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			q.reportFailure(collection, op, err)
		}
	})
	if err != nil {
		// Queue full counts as a persistence failure too
		q.reportFailure(collection, op, err)
	}
}

func (q *PersistQueue) reportFailure(collection, op string, err error) {
	telemetry.PersistFailures.WithLabelValues(collection).Inc()
	q.logger.Error("Durable write failed, in-memory state retained",
		"collection", collection, "op", op, "error", err)
	if q.alerts != nil {
		q.alerts.Alert(context.Background(), "Persistence failure",
			"A durable write failed after the in-memory change was applied",
			alert.Error, map[string]string{
				"collection": collection,
				"op":         op,
				"error":      err.Error(),
			})
	}
}

// Stop drains pending writes and stops the queue
func (q *PersistQueue) Stop() {
	q.pool.Stop()
}
