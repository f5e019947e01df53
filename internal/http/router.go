// Package httpapi wires the HTTP transport (Gin) to the lead marketplace
// services, middleware and route handlers. It centralizes cross-cutting
// concerns: tracing, correlation ids, access logging with PII scrubbing,
// panic recovery, metrics, caller identity, idempotency, rate limiting,
// CORS and security headers.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/config"
	"github.com/tbourn/go-leads-backend/internal/http/handlers"
	"github.com/tbourn/go-leads-backend/internal/http/middleware"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/services"
)

// Deps are the long-lived collaborators built by the process entrypoint.
type Deps struct {
	DB       *gorm.DB
	Resolver services.CoordinateResolver // optional
	IDs      services.IDAllocator
	Notify   services.Dispatcher // optional
}

// statsShim adapts the repo ETag queries to handlers.Stats.
type statsShim struct{ db *gorm.DB }

func (s statsShim) InterestsStats(ctx context.Context, jobID string) (int64, *time.Time, error) {
	return repo.InterestsStats(ctx, s.db, jobID)
}

func (s statsShim) TransactionsStats(ctx context.Context, walletID string) (int64, *time.Time, error) {
	return repo.TransactionsStats(ctx, s.db, walletID)
}

// idempotencyScope names the operation an Idempotency-Key belongs to. Only
// money-moving routes are scoped; other routes skip the replay lookup.
func idempotencyScope(base string) func(*gin.Context) string {
	pay := joinPath(base, "/interests/:id/pay")
	credit := joinPath(base, "/admin/wallets/:user/credit")
	return func(c *gin.Context) string {
		switch c.FullPath() {
		case pay:
			return services.PayScope(c.Param("id"))
		case credit:
			return services.CreditScope(c.Param("user"))
		}
		return ""
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: caller id and role, so the access log can carry them
//  4. Logger: structured access log with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter and gzip
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := d.DB

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
		Headers:     []string{"User-Agent", middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())

	// 1 MiB is far above any job or profile payload.
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope:  idempotencyScope(cfg.APIBasePath),
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/resolver/allocator/dispatcher
	wallets := services.NewWalletService(db, cfg.Leads.CoinRate, cfg.Leads.Currency)
	wallets.TTL = cfg.IdempotencyTTL
	leads := services.NewLeadService(db, wallets, d.Notify)
	leads.TTL = cfg.IdempotencyTTL

	h := handlers.New(handlers.Deps{
		Jobs:     services.NewJobService(db, d.Resolver, d.IDs, cfg.Leads.CoinRate, cfg.Leads.Currency),
		Leads:    leads,
		Profiles: services.NewProfileService(db, d.Resolver, d.IDs, cfg.Leads.DefaultRadiusKm),
		Matches:  services.NewMatchService(db, d.Resolver, cfg.Leads.MatchScanLimit),
		Wallets:  wallets,
		IDs:      d.IDs,
		Stats:    statsShim{db: db},
	})

	customer := middleware.RequireRole(services.RoleCustomer)
	provider := middleware.RequireRole(services.RoleProvider)
	anyone := middleware.RequireRole(services.RoleCustomer, services.RoleProvider, services.RoleAdmin)
	admin := middleware.RequireRole(services.RoleAdmin)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Jobs
		api.POST("/jobs", customer, h.CreateJob)
		api.GET("/jobs", customer, h.ListJobs)
		api.GET("/jobs/matching", provider, h.MatchingJobs)
		api.GET("/jobs/:id", anyone, h.GetJob)
		api.POST("/jobs/:id/close", customer, h.CloseJob)
		api.GET("/jobs/:id/interests", anyone, h.ListJobInterests)
		api.POST("/jobs/:id/interests", provider, h.CreateInterest)

		// Provider profile
		api.PUT("/providers/me", provider, h.UpsertProfile)
		api.GET("/providers/me", provider, h.GetProfile)

		// Interests
		api.GET("/interests", provider, h.ListMyInterests)
		api.GET("/interests/:id", anyone, h.GetInterest)
		api.POST("/interests/:id/share", customer, h.ShareContact)
		api.POST("/interests/:id/pay", provider, middleware.NoStore(), h.PayForAccess)
		api.POST("/interests/:id/cancel", anyone, h.CancelInterest)
		api.GET("/interests/:id/contact", provider, middleware.NoStore(), h.GetContact)

		// Wallet
		// The journal keeps its ETag; the balance is never cached.
		wallet := api.Group("/wallet", anyone)
		wallet.GET("", middleware.NoStore(), h.GetWallet)
		wallet.GET("/transactions", h.ListTransactions)

		// Admin
		adm := api.Group("/admin", admin, middleware.NoStore())
		adm.POST("/wallets/:user/credit", h.CreditWallet)
		adm.POST("/sequences/:namespace", h.AllocateID)
	}
}

func corsMiddleware(origins []string) []gin.HandlerFunc {
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderUserID, middleware.HeaderUserRole, middleware.HeaderIdempotencyKey,
	}
	expose := []string{"X-Request-ID", "Content-Length", "ETag", "Location", "Retry-After", "Idempotency-Replayed"}
	methods := []string{"GET", "POST", "PUT", "OPTIONS"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}
	return []gin.HandlerFunc{cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    expose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return strings.TrimRight(base, "/") + p
}
