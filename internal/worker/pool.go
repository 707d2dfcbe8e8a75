package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertaStock = "jobs:alerta_stock"
	QueueReporteCaja = "jobs:reporte_caja"

	maxJobAttempts = 3
)

// retryBase is the first backoff step between job attempts.
var retryBase = time.Second

// popErrorPause is how long a worker waits after BRPOP fails for a reason
// other than the timeout, e.g. Redis being unreachable.
var popErrorPause = 2 * time.Second

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes one payload. A returned error triggers a retry and,
// once attempts are exhausted, a move to the dead letter queue.
type JobHandler func(ctx context.Context, payload json.RawMessage) error

// Handlers maps a queue name to the handler consuming it.
type Handlers map[string]JobHandler

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAlertaStock asks the pool to announce low balances of a branch.
func (d *Dispatcher) EnqueueAlertaStock(ctx context.Context, p AlertaStockPayload) error {
	return d.enqueue(ctx, QueueAlertaStock, "alerta_stock", p)
}

// EnqueueReporteCaja asks the pool to render and mail a closed session report.
func (d *Dispatcher) EnqueueReporteCaja(ctx context.Context, p ReporteCajaPayload) error {
	return d.enqueue(ctx, QueueReporteCaja, "reporte_caja", p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming every queue that
// has a handler. Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers Handlers) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Strs("queues", queues).Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers Handlers) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: brpop failed, pausing")
					select {
					case <-ctx.Done():
					case <-time.After(popErrorPause):
					}
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

// processJob runs the queue's handler with retries. Jobs that keep failing go
// to the DLQ when rdb is available. It returns the final handler error.
func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) error {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return err
	}
	handler, ok := handlers[queue]
	if !ok {
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue, job dropped")
		return fmt.Errorf("worker: no handler for %s", queue)
	}

	attempts := 0
	err := withRetry(ctx, maxJobAttempts, func(int) error {
		attempts++
		return handler(ctx, job.Payload)
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempts", attempts).Msg("job failed")
		if rdb != nil {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		}
		return err
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
	return nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = retryBase, 3 = 2*retryBase.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * retryBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
