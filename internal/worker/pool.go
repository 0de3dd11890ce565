package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/search"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueIndex = "jobs:index"
	QueueEmail = "jobs:email"
)

// Job types.
const (
	JobIndexUpsert  = "index_upsert"
	JobIndexRemove  = "index_remove"
	JobPriceChanged = "price_changed"
)

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond

	// Pause after a failed dequeue (Redis unreachable), doubling up to the cap.
	popErrorBackoff    = 100 * time.Millisecond
	maxPopErrorBackoff = 5 * time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes one job. A returned error triggers a retry; after the
// last attempt the job goes to the dead letter queue.
type JobHandler interface {
	Process(ctx context.Context, job Job) error
}

// Handlers routes job types to their handler.
type Handlers map[string]JobHandler

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// IndexRemovePayload identifies the document to drop.
type IndexRemovePayload struct {
	ID uint `json:"id"`
}

func (d *Dispatcher) EnqueueIndexUpsert(ctx context.Context, doc search.Document) error {
	return d.enqueue(ctx, QueueIndex, JobIndexUpsert, doc)
}

func (d *Dispatcher) EnqueueIndexRemove(ctx context.Context, id uint) error {
	return d.enqueue(ctx, QueueIndex, JobIndexRemove, IndexRemovePayload{ID: id})
}

func (d *Dispatcher) EnqueuePriceChanged(ctx context.Context, ev dto.PriceChangedEvent) error {
	return d.enqueue(ctx, QueueEmail, JobPriceChanged, ev)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU. The returned
// WaitGroup is done once every worker observed ctx cancellation.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, rdb, handlers, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return &wg
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	queues := []string{QueueIndex, QueueEmail}
	backoff := popErrorBackoff
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue // timeout or context cancelled
			}
			if err != nil {
				log.Warn().Err(err).Int("worker", id).Dur("retry_in", backoff).Msg("dequeue failed")
				select {
				case <-ctx.Done():
				case <-time.After(backoff):
				}
				backoff = min(backoff*2, maxPopErrorBackoff)
				continue
			}
			backoff = popErrorBackoff
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}

	attempts, err := retry(ctx, maxAttempts, retryBackoff, func() error {
		return h.Process(ctx, job)
	})
	if err != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Int("attempts", attempts).Msg("job processed")
}

// retry calls fn up to attempts times, doubling the wait after each failure.
// It returns the number of calls made and the last error.
func retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) (int, error) {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return i, nil
		}
		if i == attempts {
			return i, err
		}
		select {
		case <-ctx.Done():
			return i, fmt.Errorf("%w (gave up: %v)", err, ctx.Err())
		case <-time.After(backoff << (i - 1)):
		}
	}
	return attempts, err
}
