package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type rateLimitErr struct{}

func (rateLimitErr) Error() string       { return "too many requests" }
func (rateLimitErr) IsRateLimited() bool { return true }

type countingFetcher struct {
	calls int
	data  []json.RawMessage
	errs  []error
}

func (f *countingFetcher) Fetch(ctx context.Context) (json.RawMessage, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.data) {
		return f.data[i], nil
	}
	return json.RawMessage(`[]`), nil
}

func newTestReadThrough(clock *fakeClock) *ReadThrough {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := NewMemoryStore(100, time.Hour, WithClock(clock.Now))
	rt := NewReadThrough(store, 5*time.Minute, logger)
	rt.SetClock(clock.Now)
	return rt
}

func TestReadThrough_FreshEntryIsServedWithoutFetch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{data: []json.RawMessage{
		json.RawMessage(`[{"id":"1","name":"Cancún"}]`),
		json.RawMessage(`[{"id":"2"}]`),
	}}
	ctx := context.Background()
	key := Key("1", "20", "mx", "es")

	first, outcome, err := rt.Get(ctx, key, fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, outcome)

	clock.Advance(4*time.Minute + 59*time.Second)

	second, outcome, err := rt.Get(ctx, key, fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHit, outcome)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []byte(first), []byte(second))
}

func TestReadThrough_ExpiredEntryIsRefetched(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{data: []json.RawMessage{
		json.RawMessage(`["old"]`),
		json.RawMessage(`["new"]`),
	}}
	ctx := context.Background()

	_, _, err := rt.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)

	clock.Advance(5*time.Minute + time.Second)

	data, outcome, err := rt.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, outcome)
	assert.Equal(t, 2, fetcher.calls)
	assert.JSONEq(t, `["new"]`, string(data))
}

func TestReadThrough_StaleOnRateLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{
		data: []json.RawMessage{json.RawMessage(`["cached"]`)},
		errs: []error{nil, rateLimitErr{}},
	}
	ctx := context.Background()

	_, _, err := rt.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)

	data, outcome, err := rt.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)
	assert.JSONEq(t, `["cached"]`, string(data))
}

func TestReadThrough_RateLimitWithoutEntryFails(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{errs: []error{rateLimitErr{}}}

	data, outcome, err := rt.Get(context.Background(), "k", fetcher.Fetch)
	assert.Nil(t, data)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Error(t, err)
}

func TestReadThrough_OtherErrorsDoNotServeStale(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{
		data: []json.RawMessage{json.RawMessage(`["cached"]`)},
		errs: []error{nil, errors.New("connection refused")},
	}
	ctx := context.Background()

	_, _, err := rt.Get(ctx, "k", fetcher.Fetch)
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)

	_, outcome, err := rt.Get(ctx, "k", fetcher.Fetch)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Error(t, err)
}

func TestReadThrough_Invalidate(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	rt := newTestReadThrough(clock)
	fetcher := &countingFetcher{}
	ctx := context.Background()

	_, _, _ = rt.Get(ctx, Key("cities", "1"), fetcher.Fetch)
	_, _, _ = rt.Get(ctx, Key("price", "1"), fetcher.Fetch)

	rt.Invalidate(ctx, "cities|")

	_, outcome, _ := rt.Get(ctx, Key("cities", "1"), fetcher.Fetch)
	assert.Equal(t, OutcomeFetched, outcome)
	_, outcome, _ = rt.Get(ctx, Key("price", "1"), fetcher.Fetch)
	assert.Equal(t, OutcomeHit, outcome)
}

func TestMemoryStore_BoundedByMaxEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(2, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", Entry{Timestamp: clock.Now()}))
	clock.Advance(time.Second)
	require.NoError(t, store.Set(ctx, "b", Entry{Timestamp: clock.Now()}))
	clock.Advance(time.Second)
	require.NoError(t, store.Set(ctx, "c", Entry{Timestamp: clock.Now()}))

	assert.Equal(t, 2, store.Size())
	_, found, _ := store.Get(ctx, "a")
	assert.False(t, found, "oldest entry should have been evicted")

	// Overwriting an existing key never evicts.
	require.NoError(t, store.Set(ctx, "c", Entry{Timestamp: clock.Now()}))
	assert.Equal(t, 2, store.Size())
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", Entry{Timestamp: clock.Now()}))
	clock.Advance(50 * time.Minute)
	require.NoError(t, store.Set(ctx, "new", Entry{Timestamp: clock.Now()}))
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, found, _ := store.Get(ctx, "new")
	assert.True(t, found)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "1|20||es", Key("1", " 20 ", "", Fold("ES")))
	assert.NotEqual(t, Key("1", "2"), Key("12", ""))
	assert.NotEqual(t, Key("cities", "Oax"), Key("cities", "oax"), "free text keeps its case")
	assert.Equal(t, Key("cities", "Oax"), Key("cities", " Oax "))
}
