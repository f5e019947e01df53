package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/config"
	"github.com/tbourn/go-leads-backend/internal/geo"
	httpapi "github.com/tbourn/go-leads-backend/internal/http"
	"github.com/tbourn/go-leads-backend/internal/notify"
	"github.com/tbourn/go-leads-backend/internal/observability"
	"github.com/tbourn/go-leads-backend/internal/sequence"
	"github.com/tbourn/go-leads-backend/internal/services"
)

const (
	purgeEvery      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, a.version())
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := a.openDB()
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg.Geo, a.log)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := newNotifier(cfg.Notify, a.log)
	if err != nil {
		return err
	}
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, cfg.Notify.Timeout, a.log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Resolver: resolver,
		IDs:      sequence.New(db, a.log),
		Notify:   dispatcher,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db, a.log)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("version", a.version()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
	}
	dispatcher.Wait()
	return nil
}

// newResolver layers the gazetteer, a cache (Redis when configured, in
// process otherwise), the per-minute lookup budget and the optional geocoder.
func newResolver(cfg config.GeoConfig, log zerolog.Logger) (*geo.Resolver, error) {
	var cache geo.CoordinateCache = geo.NewMemoryCache(cfg.CacheTTL, cfg.CacheSize)
	if cfg.RedisURL != "" {
		client, err := geo.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		cache = geo.NewRedisCache(client, cfg.CacheTTL, true)
	}

	var geocoder geo.Geocoder
	if cfg.GeocoderEnabled {
		geocoder = geo.NewNominatimClient(cfg.GeocoderURL, cfg.Country, cfg.UserAgent)
	}
	return geo.NewResolver(cache, geo.NewFixedWindow(cfg.RatePerMin, time.Minute), geocoder, cfg.Timeout, log), nil
}

// newNotifier always logs; with AMQP_URL set it also publishes to the broker.
func newNotifier(cfg config.NotifyConfig, log zerolog.Logger) (notify.Notifier, func(), error) {
	sinks := notify.Multi{notify.LogNotifier{Log: log}}
	if cfg.AMQPURL == "" {
		return sinks, func() {}, nil
	}
	amqpN, err := notify.DialAMQP(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, nil, err
	}
	return append(sinks, amqpN), func() {
		if err := amqpN.Close(); err != nil {
			log.Warn().Err(err).Msg("amqp close")
		}
	}, nil
}

func purgeIdempotency(ctx context.Context, db *gorm.DB, log zerolog.Logger) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := services.PurgeIdempotency(ctx, db)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged idempotency keys")
			}
		}
	}
}
