// Lead marketplace HTTP handlers.
//
// Handlers are transport-thin: they read the caller identity placed in the
// Gin context by middleware, bind and bound inputs, call the application
// services through the interfaces below and translate results and errors
// into HTTP responses.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/http/middleware"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/sequence"
	"github.com/tbourn/go-leads-backend/internal/services"
	"github.com/tbourn/go-leads-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// JobService posts and manages customer jobs.
type JobService interface {
	Create(ctx context.Context, caller services.Caller, in domain.JobInput) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	Close(ctx context.Context, caller services.Caller, id string) (*domain.Job, error)
	ListMine(ctx context.Context, caller services.Caller, page, pageSize int) ([]domain.Job, int64, error)
}

// LeadService drives interests through their lifecycle.
type LeadService interface {
	Create(ctx context.Context, caller services.Caller, jobID string) (*domain.Interest, error)
	ShareContact(ctx context.Context, caller services.Caller, interestID string) (*domain.Interest, error)
	PayForAccessOnce(ctx context.Context, caller services.Caller, interestID, key string) (*services.PaymentResult, error)
	Cancel(ctx context.Context, caller services.Caller, interestID string) (*domain.Interest, error)
	Get(ctx context.Context, caller services.Caller, interestID string) (*domain.Interest, error)
	Contact(ctx context.Context, caller services.Caller, interestID string) (*domain.Contact, error)
	ListForJob(ctx context.Context, caller services.Caller, jobID string, page, pageSize int) (*services.InterestPage, error)
	ListForProvider(ctx context.Context, caller services.Caller, page, pageSize int) ([]domain.Interest, int64, error)
}

// ProfileService manages provider profiles.
type ProfileService interface {
	Upsert(ctx context.Context, caller services.Caller, patch domain.ProfilePatch) (*domain.ProviderProfile, error)
	Get(ctx context.Context, userID string) (*domain.ProviderProfile, error)
}

// MatchService builds a provider's job feed.
type MatchService interface {
	JobsForProvider(ctx context.Context, caller services.Caller, page, pageSize int) (*services.MatchPage, error)
}

// WalletService exposes balances, history and credits.
type WalletService interface {
	Balance(ctx context.Context, userID string) (*domain.Wallet, error)
	Summary(ctx context.Context, userID string) ([]repo.TypeTotal, error)
	History(ctx context.Context, userID string, page, pageSize int) ([]domain.WalletTransaction, int64, error)
	CreditOnce(ctx context.Context, issuerID, key string, m services.Movement) (*domain.WalletTransaction, bool, error)
}

// IDAllocator issues identifiers from a named sequence.
type IDAllocator interface {
	Next(ctx context.Context, namespace string, width int, alphabet sequence.Alphabet) (string, error)
}

// Stats feeds the weak ETags of list endpoints. Optional.
type Stats interface {
	InterestsStats(ctx context.Context, jobID string) (int64, *time.Time, error)
	TransactionsStats(ctx context.Context, walletID string) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers.
type Deps struct {
	Jobs     JobService
	Leads    LeadService
	Profiles ProfileService
	Matches  MatchService
	Wallets  WalletService
	IDs      IDAllocator
	Stats    Stats
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	jobs     JobService
	leads    LeadService
	profiles ProfileService
	matches  MatchService
	wallets  WalletService
	ids      IDAllocator
	stats    Stats
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		jobs:     d.Jobs,
		leads:    d.Leads,
		profiles: d.Profiles,
		matches:  d.Matches,
		wallets:  d.Wallets,
		ids:      d.IDs,
		stats:    d.Stats,
	}
}

// caller builds the service-level identity from the Gin context.
func caller(c *gin.Context) services.Caller {
	return services.Caller{UserID: middleware.UserID(c), Role: middleware.UserRole(c)}
}

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination reads page and page_size, applying the list defaults and
// the maximum page size.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
}

// notModified sets a weak ETag built from (kind, id, count, latest) and
// reports whether the client already holds it.
func notModified(c *gin.Context, kind, id string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixMilli()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, id, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// markReplay flags a response that repeats an earlier idempotent result.
func markReplay(c *gin.Context, replayed bool) {
	if replayed {
		c.Header("Idempotency-Replayed", "true")
	}
}
