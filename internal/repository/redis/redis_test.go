package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSequence_Next(t *testing.T) {
	mr, client := newTestClient(t)
	seq := NewSequence(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := seq.Next(ctx, "20240301")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := seq.Next(ctx, "20240302")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each day starts from 1")

	assert.Equal(t, 48*time.Hour, mr.TTL("order_seq:20240301"))
	mr.FastForward(49 * time.Hour)
	assert.False(t, mr.Exists("order_seq:20240301"))
}

func TestSequence_ConcurrentCallersGetDistinctValues(t *testing.T) {
	_, client := newTestClient(t)
	seq := NewSequence(client)

	const callers = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), "20240301")
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, callers)
	for i := int64(1); i <= callers; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

func TestSequence_Unavailable(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	_, err := NewSequence(client).Next(context.Background(), "20240301")
	assert.Error(t, err)
}

func TestIdempotencyStore(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "e-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "e-1"))
	require.NoError(t, store.Add(ctx, "e-1"))

	seen, err = store.Contains(ctx, "e-1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Hour)
	seen, err = store.Contains(ctx, "e-1")
	require.NoError(t, err)
	assert.False(t, seen)
}
