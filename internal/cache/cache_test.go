package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCache_SetGet(t *testing.T) {
	client, _ := testClient(t)
	c := New(client, time.Minute)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "loan:abc", payload{Name: "x", Count: 3}))

	var got payload
	require.NoError(t, c.Get(ctx, "loan:abc", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestCache_MissAndExpiry(t *testing.T) {
	client, mr := testClient(t)
	c := New(client, time.Minute)
	ctx := context.Background()

	var got map[string]string
	assert.ErrorIs(t, c.Get(ctx, "absent", &got), ErrMiss)

	require.NoError(t, c.SetTTL(ctx, "short", map[string]string{"a": "b"}, time.Second))
	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrMiss)
}

func TestCache_DeletePattern(t *testing.T) {
	client, _ := testClient(t)
	c := New(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "loan:1", 1))
	require.NoError(t, c.Set(ctx, "loan:2", 2))
	require.NoError(t, c.Set(ctx, "customer:1", 3))

	require.NoError(t, c.DeletePattern(ctx, "loan:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "loan:1", &v), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, "loan:2", &v), ErrMiss)
	assert.NoError(t, c.Get(ctx, "customer:1", &v))
}

func TestLimiter_FixedWindow(t *testing.T) {
	client, mr := testClient(t)
	l := NewLimiter(client, "login", 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys are unaffected.
	ok, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	// Window expiry resets the counter.
	mr.FastForward(6 * time.Minute)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_Reset(t *testing.T) {
	client, _ := testClient(t)
	l := NewLimiter(client, "login", 1, time.Minute)
	ctx := context.Background()

	_, err := l.Allow(ctx, "user@example.com")
	require.NoError(t, err)
	ok, err := l.Allow(ctx, "user@example.com")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "user@example.com"))

	ok, err = l.Allow(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}
