package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volur/internal/contracts"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type payload struct {
	Price float64 `json:"price"`
}

func countingFetch(calls *atomic.Int32, price float64) FetchFunc {
	return func(context.Context) (interface{}, error) {
		calls.Add(1)
		return payload{Price: price}, nil
	}
}

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := newFakeClock()
	return New(NewMemoryBackend(), ttl, nil).WithClock(clock.Now), clock
}

func TestFresh(t *testing.T) {
	stored := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := time.Hour

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just stored", stored, true},
		{"inside ttl", stored.Add(59 * time.Minute), true},
		{"exactly at ttl", stored.Add(time.Hour), false},
		{"past ttl", stored.Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fresh(stored, tt.now, ttl))
		})
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "fmp:AAPL:quote", QuoteKey("FMP", " aapl ").String())
	assert.Equal(t, "yfinance:BRK.B:fundamentals", FundamentalsKey("yfinance", "brk.b").String())
}

func TestGetOrFetch_HitWithinTTL(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	ctx := context.Background()
	key := QuoteKey("test", "AAPL")

	var calls atomic.Int32
	var first, second payload

	require.NoError(t, c.GetOrFetch(ctx, key, &first, countingFetch(&calls, 187.5)))
	clock.Advance(30 * time.Minute)
	require.NoError(t, c.GetOrFetch(ctx, key, &second, countingFetch(&calls, 999)))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 187.5, second.Price)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Fetches: 1}, c.Stats())
}

func TestGetOrFetch_RefetchAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	ctx := context.Background()
	key := QuoteKey("test", "AAPL")

	var calls atomic.Int32
	var got payload

	require.NoError(t, c.GetOrFetch(ctx, key, &got, countingFetch(&calls, 100)))
	clock.Advance(time.Hour + time.Second)
	require.NoError(t, c.GetOrFetch(ctx, key, &got, countingFetch(&calls, 110)))
	assert.Equal(t, 110.0, got.Price)

	// the refreshed entry is served again
	require.NoError(t, c.GetOrFetch(ctx, key, &got, countingFetch(&calls, 120)))
	assert.Equal(t, 110.0, got.Price)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrFetch_SingleFlight(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	key := FundamentalsKey("test", "MSFT")

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return payload{Price: 401}, nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]payload, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.GetOrFetch(context.Background(), key, &results[i], fetch)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one fetch")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 401.0, results[i].Price)
	}
}

func TestGetOrFetch_FailureNotCached(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	ctx := context.Background()
	key := QuoteKey("test", "FAIL")

	boom := contracts.NewProviderError("test", "quote", "FAIL", contracts.ProviderTransient, errors.New("timeout"))
	var calls atomic.Int32

	var got payload
	err := c.GetOrFetch(ctx, key, &got, func(context.Context) (interface{}, error) {
		calls.Add(1)
		return nil, boom
	})
	assert.ErrorIs(t, err, contracts.ErrProviderFailure)

	require.NoError(t, c.GetOrFetch(ctx, key, &got, countingFetch(&calls, 50)))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 50.0, got.Price)
}

func TestGetOrFetch_NamespacedBySource(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	ctx := context.Background()

	var calls atomic.Int32
	var a, b payload
	require.NoError(t, c.GetOrFetch(ctx, QuoteKey("fmp", "AAPL"), &a, countingFetch(&calls, 1)))
	require.NoError(t, c.GetOrFetch(ctx, QuoteKey("finnhub", "AAPL"), &b, countingFetch(&calls, 2)))

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1.0, a.Price)
	assert.Equal(t, 2.0, b.Price)
}

func TestGetOrFetch_CallerCancellation(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	key := QuoteKey("test", "SLOW")

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (interface{}, error) {
		calls.Add(1)
		close(started)
		<-release
		return payload{Price: 7}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var got payload
		done <- c.GetOrFetch(ctx, key, &got, fetch)
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// the detached fetch still completes and is stored
	close(release)
	var got payload
	require.NoError(t, c.GetOrFetch(context.Background(), key, &got, fetch))
	assert.Equal(t, 7.0, got.Price)
	assert.Equal(t, int32(1), calls.Load())
}

type failingWrites struct {
	*MemoryBackend
}

func (failingWrites) Write(context.Context, string, Entry) error {
	return errors.New("disk full")
}

func TestGetOrFetch_WriteFailureStillServes(t *testing.T) {
	c := New(failingWrites{NewMemoryBackend()}, time.Hour, nil)

	var got payload
	var calls atomic.Int32
	require.NoError(t, c.GetOrFetch(context.Background(), QuoteKey("test", "X"), &got, countingFetch(&calls, 3)))
	assert.Equal(t, 3.0, got.Price)
}

func TestInvalidateAndClear(t *testing.T) {
	backend := NewMemoryBackend()
	c := New(backend, time.Hour, nil)
	ctx := context.Background()

	var calls atomic.Int32
	var got payload
	require.NoError(t, c.GetOrFetch(ctx, QuoteKey("test", "A"), &got, countingFetch(&calls, 1)))
	require.NoError(t, c.GetOrFetch(ctx, QuoteKey("test", "B"), &got, countingFetch(&calls, 1)))
	assert.Equal(t, 2, backend.Len())

	require.NoError(t, c.Invalidate(ctx, QuoteKey("test", "A")))
	assert.Equal(t, 1, backend.Len())

	require.NoError(t, c.GetOrFetch(ctx, QuoteKey("test", "A"), &got, countingFetch(&calls, 1)))
	assert.Equal(t, int32(3), calls.Load())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, backend.Len())
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	value := []byte(`{"price":1}`)
	require.NoError(t, backend.Write(ctx, "k", Entry{Value: value, StoredAt: time.Now()}))
	value[0] = 'x'

	e, ok, err := backend.Read(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"price":1}`, string(e.Value))
}
