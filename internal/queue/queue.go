// Package queue is a small Redis-backed job queue used for deferred work
// such as schedule generation. Jobs are JSON blobs on a ready list; failed
// jobs wait on a delayed set with exponential backoff and are parked after
// the attempt budget is spent.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAttempts  = 3
	defaultPollInterval = time.Second
	backoffBase         = 30 * time.Second
)

// Job is one unit of deferred work.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Handler processes one job. A nil return acknowledges the job; an error
// schedules a retry.
type Handler func(ctx context.Context, job *Job) error

// Queue produces and consumes jobs on Redis lists.
type Queue struct {
	client       *redis.Client
	name         string
	log          zerolog.Logger
	handlers     map[string]Handler
	maxAttempts  int
	pollInterval time.Duration
	now          func() time.Time // injectable for backoff tests
}

// New builds a queue named name; keys are prefixed with it.
func New(client *redis.Client, name string, log zerolog.Logger) *Queue {
	return &Queue{
		client:       client,
		name:         name,
		log:          log.With().Str("queue", name).Logger(),
		handlers:     make(map[string]Handler),
		maxAttempts:  defaultMaxAttempts,
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
}

func (q *Queue) readyKey() string   { return q.name + ":ready" }
func (q *Queue) delayedKey() string { return q.name + ":delayed" }
func (q *Queue) parkedKey() string  { return q.name + ":parked" }

// Register binds a handler to a job type. Not safe to call after Run starts.
func (q *Queue) Register(jobType string, handler Handler) {
	q.handlers[jobType] = handler
}

// Enqueue marshals payload and pushes a job onto the ready list.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    data,
		EnqueuedAt: q.now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.readyKey(), raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return job.ID, nil
}

// Run consumes jobs until ctx is cancelled. Delayed jobs whose backoff has
// elapsed are promoted before each drain of the ready list.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	q.log.Info().Msg("queue worker started")
	for {
		select {
		case <-ctx.Done():
			q.log.Info().Msg("queue worker stopped")
			return
		case <-ticker.C:
			q.tick(ctx)
		}
	}
}

// tick promotes due delayed jobs and drains the ready list once.
func (q *Queue) tick(ctx context.Context) {
	if err := q.promoteDelayed(ctx); err != nil {
		q.log.Error().Err(err).Msg("promote delayed jobs")
	}
	for {
		raw, err := q.client.LPop(ctx, q.readyKey()).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			q.log.Error().Err(err).Msg("pop job")
			return
		}
		q.dispatch(ctx, []byte(raw))
	}
}

func (q *Queue) dispatch(ctx context.Context, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		q.log.Error().Err(err).Msg("unmarshal job, dropping")
		return
	}

	handler, ok := q.handlers[job.Type]
	if !ok {
		q.log.Error().Str("type", job.Type).Str("job_id", job.ID).Msg("no handler, parking job")
		q.park(ctx, &job)
		return
	}

	job.Attempts++
	if err := handler(ctx, &job); err != nil {
		q.log.Error().Err(err).
			Str("type", job.Type).
			Str("job_id", job.ID).
			Int("attempts", job.Attempts).
			Msg("job failed")
		q.retryOrPark(ctx, &job)
		return
	}
	q.log.Info().Str("type", job.Type).Str("job_id", job.ID).Msg("job done")
}

func (q *Queue) retryOrPark(ctx context.Context, job *Job) {
	if job.Attempts >= q.maxAttempts {
		q.park(ctx, job)
		return
	}
	// Backoff doubles per attempt: 30s, 60s, ...
	delay := backoffBase << (job.Attempts - 1)
	readyAt := q.now().Add(delay)

	raw, err := json.Marshal(job)
	if err != nil {
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("marshal for retry")
		return
	}
	err = q.client.ZAdd(ctx, q.delayedKey(), redis.Z{
		Score:  float64(readyAt.Unix()),
		Member: raw,
	}).Err()
	if err != nil {
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("schedule retry")
	}
}

func (q *Queue) park(ctx context.Context, job *Job) {
	raw, err := json.Marshal(job)
	if err != nil {
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("marshal for park")
		return
	}
	if err := q.client.RPush(ctx, q.parkedKey(), raw).Err(); err != nil {
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("park job")
		return
	}
	q.log.Warn().Str("type", job.Type).Str("job_id", job.ID).Int("attempts", job.Attempts).
		Msg("job parked after exhausting attempts")
}

func (q *Queue) promoteDelayed(ctx context.Context) error {
	now := fmt.Sprintf("%d", q.now().Unix())
	members, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		if removed, err := q.client.ZRem(ctx, q.delayedKey(), m).Result(); err != nil || removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, q.readyKey(), m).Err(); err != nil {
			return err
		}
	}
	return nil
}
