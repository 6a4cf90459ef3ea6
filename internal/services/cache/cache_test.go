package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-bot/internal/models"
	"weather-bot/internal/services/cache"
	"weather-bot/pkg/observe"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetcher struct {
	calls  atomic.Int32
	report models.WeatherReport
	err    error
}

func (f *countingFetcher) Fetch(ctx context.Context) (models.WeatherReport, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.WeatherReport{}, f.err
	}
	return f.report, nil
}

func newCache() (*cache.WeatherCache, *manualClock) {
	clock := &manualClock{now: time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC)}
	return cache.NewWeatherCache(clock, observe.NewNopLogger()), clock
}

func sampleReport(desc string) models.WeatherReport {
	return models.WeatherReport{
		Current: models.WeatherSnapshot{
			Place:        "Berlin",
			Condition:    models.ConditionClouds,
			Description:  desc,
			TemperatureC: 18.3,
			WindSpeedMS:  4.1,
		},
		Forecast: models.ForecastOf(models.ForecastPoint{Condition: models.ConditionRain, Description: "light rain"}),
	}
}

func TestGetOrFetch_HitWithinTTL(t *testing.T) {
	c, clock := newCache()
	fetcher := &countingFetcher{report: sampleReport("overcast clouds")}
	ctx := context.Background()

	first, err := c.GetOrFetch(ctx, "Berlin", fetcher.Fetch)
	require.NoError(t, err)

	clock.Advance(cache.TTL - time.Second)

	second, err := c.GetOrFetch(ctx, "Berlin", fetcher.Fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, first, second)
}

func TestGetOrFetch_RefetchAfterTTL(t *testing.T) {
	c, clock := newCache()
	fetcher := &countingFetcher{report: sampleReport("overcast clouds")}
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "Berlin", fetcher.Fetch)
	require.NoError(t, err)

	clock.Advance(cache.TTL)
	fetcher.report = sampleReport("scattered clouds")

	report, err := c.GetOrFetch(ctx, "Berlin", fetcher.Fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.Equal(t, "scattered clouds", report.Current.Description)

	entry, ok := c.Entry("berlin")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), entry.FetchedAt)
}

func TestGetOrFetch_KeysAreCaseFolded(t *testing.T) {
	c, _ := newCache()
	fetcher := &countingFetcher{report: sampleReport("clear sky")}
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "Berlin", fetcher.Fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, "berlin", fetcher.Fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(ctx, "BERLIN", fetcher.Fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestGetOrFetch_FailedRefreshKeepsPreviousEntry(t *testing.T) {
	c, clock := newCache()
	good := &countingFetcher{report: sampleReport("clear sky")}
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "Berlin", good.Fetch)
	require.NoError(t, err)
	before, _ := c.Entry("Berlin")

	clock.Advance(cache.TTL + time.Minute)

	failing := &countingFetcher{err: models.ErrUpstreamUnavailable}
	_, err = c.GetOrFetch(ctx, "Berlin", failing.Fetch)
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), failing.calls.Load())

	after, ok := c.Entry("Berlin")
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestGetOrFetch_FailureWithinWindowDoesNotEvict(t *testing.T) {
	c, clock := newCache()
	good := &countingFetcher{report: sampleReport("clear sky")}
	failing := &countingFetcher{err: models.ErrLocationNotFound}
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "Berlin", good.Fetch)
	require.NoError(t, err)

	// a failing lookup for another key must not disturb this one
	_, err = c.GetOrFetch(ctx, "Atlantis", failing.Fetch)
	require.ErrorIs(t, err, models.ErrLocationNotFound)

	clock.Advance(cache.TTL / 2)

	report, err := c.GetOrFetch(ctx, "Berlin", failing.Fetch)
	require.NoError(t, err)
	assert.Equal(t, "clear sky", report.Current.Description)
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestGetOrFetch_FailureIsNotCached(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()

	failing := &countingFetcher{err: errors.New("boom")}
	_, err := c.GetOrFetch(ctx, "Berlin", failing.Fetch)
	require.Error(t, err)

	_, ok := c.Entry("Berlin")
	assert.False(t, ok)

	good := &countingFetcher{report: sampleReport("clear sky")}
	_, err = c.GetOrFetch(ctx, "Berlin", good.Fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), good.calls.Load())
}

func TestGetOrFetch_ConcurrentMissesShareFetch(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (models.WeatherReport, error) {
		calls.Add(1)
		<-release
		return sampleReport("fog"), nil
	}

	const callers = 8
	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			started.Done()
			report, err := c.GetOrFetch(ctx, "Berlin", fetch)
			assert.NoError(t, err)
			assert.Equal(t, "fog", report.Current.Description)
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrFetch_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	c, _ := newCache()

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (models.WeatherReport, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return models.WeatherReport{}, err
		}
		return sampleReport("fog"), nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(firstCtx, "Berlin", fetch)
		firstErr <- err
	}()
	<-entered

	type result struct {
		report models.WeatherReport
		err    error
	}
	second := make(chan result, 1)
	go func() {
		report, err := c.GetOrFetch(context.Background(), "Berlin", fetch)
		second <- result{report: report, err: err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "fog", res.report.Current.Description)
	assert.Equal(t, int32(1), calls.Load())

	_, ok := c.Entry("Berlin")
	assert.True(t, ok)
}

func TestGetOrFetch_HungFetchStallsOnlyWaitingCaller(t *testing.T) {
	c, _ := newCache()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (models.WeatherReport, error) {
		calls.Add(1)
		<-release
		return sampleReport("mist"), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetOrFetch(ctx, "Berlin", fetch)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool {
		_, ok := c.Entry("Berlin")
		return ok
	}, time.Second, 5*time.Millisecond)

	report, err := c.GetOrFetch(context.Background(), "Berlin", fetch)
	require.NoError(t, err)
	assert.Equal(t, "mist", report.Current.Description)
	assert.Equal(t, int32(1), calls.Load())
}
