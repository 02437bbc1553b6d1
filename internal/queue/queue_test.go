package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueue(t *testing.T) (*Queue, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "test", zerolog.Nop()), mr, client
}

func TestQueue_EnqueueAndProcess(t *testing.T) {
	q, _, _ := testQueue(t)
	ctx := context.Background()

	type payload struct {
		LoanID string `json:"loanId"`
	}

	var got payload
	q.Register("generate", func(ctx context.Context, job *Job) error {
		return json.Unmarshal(job.Payload, &got)
	})

	id, err := q.Enqueue(ctx, "generate", payload{LoanID: "abc"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	q.tick(ctx)
	assert.Equal(t, "abc", got.LoanID)
}

func TestQueue_ProcessesInOrder(t *testing.T) {
	q, _, _ := testQueue(t)
	ctx := context.Background()

	var order []string
	q.Register("step", func(ctx context.Context, job *Job) error {
		var s string
		if err := json.Unmarshal(job.Payload, &s); err != nil {
			return err
		}
		order = append(order, s)
		return nil
	})

	for _, s := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(ctx, "step", s)
		require.NoError(t, err)
	}

	q.tick(ctx)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestQueue_RetryWithBackoff(t *testing.T) {
	q, _, client := testQueue(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	q.now = func() time.Time { return current }

	calls := 0
	q.Register("flaky", func(ctx context.Context, job *Job) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	_, err := q.Enqueue(ctx, "flaky", nil)
	require.NoError(t, err)

	q.tick(ctx)
	assert.Equal(t, 1, calls)

	// The retry waits on the delayed set, not the ready list.
	delayed, err := client.ZCard(ctx, q.delayedKey()).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, delayed)

	q.tick(ctx)
	assert.Equal(t, 1, calls, "must not retry before backoff elapses")

	current = base.Add(time.Minute)
	q.tick(ctx)
	assert.Equal(t, 2, calls)

	delayed, err = client.ZCard(ctx, q.delayedKey()).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, delayed)
}

func TestQueue_ParksAfterMaxAttempts(t *testing.T) {
	q, _, client := testQueue(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	q.now = func() time.Time { return current }

	calls := 0
	q.Register("broken", func(ctx context.Context, job *Job) error {
		calls++
		return errors.New("permanent")
	})

	_, err := q.Enqueue(ctx, "broken", nil)
	require.NoError(t, err)

	for i := 0; i < defaultMaxAttempts; i++ {
		q.tick(ctx)
		current = current.Add(10 * time.Minute)
	}
	q.tick(ctx)

	assert.Equal(t, defaultMaxAttempts, calls)

	parked, err := client.LLen(ctx, q.parkedKey()).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)

	raw, err := client.LIndex(ctx, q.parkedKey(), 0).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, "broken", job.Type)
	assert.Equal(t, defaultMaxAttempts, job.Attempts)
}

func TestQueue_UnknownTypeParksImmediately(t *testing.T) {
	q, _, client := testQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "nobody-home", nil)
	require.NoError(t, err)

	q.tick(ctx)

	parked, err := client.LLen(ctx, q.parkedKey()).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)
}
