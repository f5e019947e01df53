package geo

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/metrics"
)

type fakeGeocoder struct {
	calls atomic.Int32
	pt    domain.Coordinates
	ok    bool
	err   error
	delay time.Duration
}

func (f *fakeGeocoder) Geocode(ctx context.Context, _ string) (domain.Coordinates, bool, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.Coordinates{}, false, ctx.Err()
		}
	}
	return f.pt, f.ok, f.err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (domain.CoordinateCacheEntry, bool, error) {
	return domain.CoordinateCacheEntry{}, false, errors.New("redis down")
}
func (brokenCache) Set(context.Context, domain.CoordinateCacheEntry) error {
	return errors.New("redis down")
}

func newTestResolver(g Geocoder, limit int) (*Resolver, *MemoryCache) {
	cache := NewMemoryCache(time.Hour, 0)
	return NewResolver(cache, NewFixedWindow(limit, time.Minute), g, time.Second, zerolog.Nop()), cache
}

func TestResolve_GazetteerMakesNoNetworkCall(t *testing.T) {
	client := NewNominatimClient(testGeocoderURL, "NG", "leads-test/1.0")
	httpmock.ActivateNonDefault(client.HTTP)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodGet, testGeocoderURL, httpmock.NewStringResponder(200, `[]`))

	r, _ := newTestResolver(client, 30)
	before := testutil.ToFloat64(metrics.GeoResolve.WithLabelValues(metrics.GeoGazetteer))

	pt, ok := r.Resolve(context.Background(), "ph")
	assert.True(t, ok)
	assert.Equal(t, domain.Coordinates{Latitude: 4.8156, Longitude: 7.0498}, pt)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GeoResolve.WithLabelValues(metrics.GeoGazetteer)))
}

func TestResolve_LookupThenCache(t *testing.T) {
	g := &fakeGeocoder{pt: domain.Coordinates{Latitude: 6.69, Longitude: 3.24}, ok: true}
	r, cache := newTestResolver(g, 30)

	pt, ok := r.Resolve(context.Background(), "Sango-Ota")
	assert.True(t, ok)
	assert.Equal(t, 6.69, pt.Latitude)
	assert.Equal(t, 1, cache.Len())

	pt, ok = r.Resolve(context.Background(), "  sango   OTA ")
	assert.True(t, ok)
	assert.Equal(t, 3.24, pt.Longitude)
	assert.Equal(t, int32(1), g.calls.Load(), "second call served from cache")
}

func TestResolve_RateLimitedFailsOpen(t *testing.T) {
	g := &fakeGeocoder{ok: false}
	r, _ := newTestResolver(g, 2)

	for _, q := range []string{"a town", "b town", "c town"} {
		_, ok := r.Resolve(context.Background(), q)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(2), g.calls.Load(), "third lookup refused by the limiter")
}

func TestResolve_ErrorsAndTimeoutDegrade(t *testing.T) {
	_, ok := func() (domain.Coordinates, bool) {
		r, _ := newTestResolver(&fakeGeocoder{err: errors.New("boom")}, 30)
		return r.Resolve(context.Background(), "somewhere")
	}()
	assert.False(t, ok)

	slow := &fakeGeocoder{ok: true, delay: time.Minute}
	r, _ := newTestResolver(slow, 30)
	r.Timeout = 20 * time.Millisecond
	start := time.Now()
	_, ok = r.Resolve(context.Background(), "far away")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolve_EmptyAndDisabled(t *testing.T) {
	r, _ := newTestResolver(nil, 30)
	_, ok := r.Resolve(context.Background(), " ,, ")
	assert.False(t, ok)

	_, ok = r.Resolve(context.Background(), "unknown hamlet")
	assert.False(t, ok)

	pt, ok := r.Resolve(context.Background(), "Ikeja, Lagos")
	assert.True(t, ok, "gazetteer works without a geocoder")
	assert.Equal(t, 6.6018, pt.Latitude)
}

func TestResolve_BrokenCacheIsMiss(t *testing.T) {
	g := &fakeGeocoder{pt: domain.Coordinates{Latitude: 1, Longitude: 2}, ok: true}
	r := NewResolver(brokenCache{}, nil, g, time.Second, zerolog.Nop())
	pt, ok := r.Resolve(context.Background(), "somewhere")
	assert.True(t, ok)
	assert.Equal(t, 2.0, pt.Longitude)
}
