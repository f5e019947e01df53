package geo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/metrics"
)

// Limiter gates external lookups.
type Limiter interface {
	Allow() bool
}

// Resolver maps free-text locations to coordinates. It is built once per
// process and injected; its cache and limiter are owned by the instance.
type Resolver struct {
	Gazetteer Gazetteer
	Cache     CoordinateCache
	Limiter   Limiter
	// Geocoder may be nil, which disables external lookups.
	Geocoder Geocoder
	Timeout  time.Duration
	Log      zerolog.Logger

	now func() time.Time
}

// DefaultLookupTimeout bounds a single external lookup.
const DefaultLookupTimeout = 5 * time.Second

// NewResolver wires a resolver over the default gazetteer.
func NewResolver(cache CoordinateCache, limiter Limiter, geocoder Geocoder, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{
		Gazetteer: DefaultGazetteer,
		Cache:     cache,
		Limiter:   limiter,
		Geocoder:  geocoder,
		Timeout:   timeout,
		Log:       log,
		now:       time.Now,
	}
}

// Resolve returns coordinates for text, or ok=false. It never returns an
// error: cache failures count as misses and lookup failures as no match.
func (r *Resolver) Resolve(ctx context.Context, text string) (domain.Coordinates, bool) {
	key := Normalize(text)
	if key == "" {
		metrics.GeoResolve.WithLabelValues(metrics.GeoEmpty).Inc()
		return domain.Coordinates{}, false
	}

	if p, ok := r.Gazetteer.Lookup(key); ok {
		metrics.GeoResolve.WithLabelValues(metrics.GeoGazetteer).Inc()
		return p.Point, true
	}

	if r.Cache != nil {
		e, ok, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Log.Warn().Err(err).Str("key", key).Msg("coordinate cache read failed")
		} else if ok {
			metrics.GeoResolve.WithLabelValues(metrics.GeoCache).Inc()
			return e.Point, true
		}
	}

	if r.Geocoder == nil {
		metrics.GeoResolve.WithLabelValues(metrics.GeoDisabled).Inc()
		return domain.Coordinates{}, false
	}
	if r.Limiter != nil && !r.Limiter.Allow() {
		metrics.GeoResolve.WithLabelValues(metrics.GeoRateLimited).Inc()
		r.Log.Debug().Str("key", key).Msg("geocoder rate limit reached")
		return domain.Coordinates{}, false
	}

	lctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	pt, ok, err := r.Geocoder.Geocode(lctx, key)
	switch {
	case err != nil:
		metrics.GeoResolve.WithLabelValues(metrics.GeoLookupError).Inc()
		r.Log.Warn().Err(err).Str("key", key).Msg("geocoder lookup failed")
		return domain.Coordinates{}, false
	case !ok:
		metrics.GeoResolve.WithLabelValues(metrics.GeoLookupMiss).Inc()
		return domain.Coordinates{}, false
	}

	metrics.GeoResolve.WithLabelValues(metrics.GeoLookupOK).Inc()
	if r.Cache != nil {
		entry := domain.CoordinateCacheEntry{Key: key, Point: pt, ResolvedAt: r.clock().UTC()}
		if err := r.Cache.Set(ctx, entry); err != nil {
			r.Log.Warn().Err(err).Str("key", key).Msg("coordinate cache write failed")
		}
	}
	return pt, true
}

func (r *Resolver) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
