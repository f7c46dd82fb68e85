package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volur/internal/cache"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/redis"
)

func TestStore_DisabledClientIsAlwaysMiss(t *testing.T) {
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	store := New(client, "volur", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "fmp:AAPL:quote", cache.Entry{Value: []byte(`{}`), StoredAt: time.Now()}))

	_, ok, err := store.Read(ctx, "fmp:AAPL:quote")
	require.NoError(t, err)
	assert.False(t, ok)

	// the cache still works on top of it, just without reuse
	c := cache.New(store, time.Hour, nil)
	var got map[string]int
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, c.GetOrFetch(ctx, cache.QuoteKey("fmp", "AAPL"), &got, func(context.Context) (interface{}, error) {
			calls++
			return map[string]int{"n": calls}, nil
		}))
	}
	assert.Equal(t, 2, calls)
}
