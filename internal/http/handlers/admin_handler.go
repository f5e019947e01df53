// Administrative HTTP handlers.
//
//   - POST /admin/wallets/{user}/credit   (credit coins, Idempotency-Key aware)
//   - POST /admin/sequences/{namespace}   (allocate an identifier)
package handlers

import (
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/http/middleware"
	"github.com/tbourn/go-leads-backend/internal/sequence"
	"github.com/tbourn/go-leads-backend/internal/services"
	"github.com/tbourn/go-leads-backend/internal/utils"
)

// CreditRequest is the JSON payload of an administrative credit.
type CreditRequest struct {
	// Coins to add; must be positive.
	Coins int64 `json:"coins" example:"100"`
	// Type is funding (default), referral_reward or refund.
	Type        string `json:"type" example:"funding" enums:"funding,referral_reward,refund"`
	Description string `json:"description" example:"bank transfer 2291"`
	Reference   string `json:"reference,omitempty" example:"psp:ch_3NQ"`
}

// CreditResponse carries the journal row written (or replayed).
type CreditResponse struct {
	Transaction *domain.WalletTransaction `json:"transaction"`
	Replayed    bool                      `json:"replayed"`
}

// AllocateResponse is a freshly issued identifier.
type AllocateResponse struct {
	Namespace string `json:"namespace" example:"jobs"`
	ID        string `json:"id" example:"000042"`
}

const maxSequenceWidth = 12

var namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)

// CreditWallet godoc
// @ID          creditWallet
// @Summary     Credit a user's wallet
// @Description Adds coins and writes one journal row. With Idempotency-Key a repeat returns the original row and Idempotency-Replayed: true.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-User-Role      header  string  true  "Caller role"  example(admin)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       user             path    string  true  "Wallet owner"  example(prov-1)
// @Param       body             body    handlers.CreditRequest  true  "Credit payload"
// @Success     201  {object}  handlers.CreditResponse  "Credited"
// @Success     200  {object}  handlers.CreditResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse   "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse   "Not an admin"
// @Router      /admin/wallets/{user}/credit [post]
func (h *Handlers) CreditWallet(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	typ := domain.TxFunding
	if t := strings.TrimSpace(req.Type); t != "" {
		typ = domain.TransactionType(strings.ToLower(t))
	}

	key, _ := middleware.GetIdempotencyKey(c)
	txn, replayed, err := h.wallets.CreditOnce(c.Request.Context(), caller(c).UserID, key, services.Movement{
		UserID:      strings.TrimSpace(c.Param("user")),
		Coins:       req.Coins,
		Type:        typ,
		Description: req.Description,
		Reference:   req.Reference,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	markReplay(c, replayed)
	ok(c, status, CreditResponse{Transaction: txn, Replayed: replayed})
}

// AllocateID godoc
// @ID          allocateID
// @Summary     Allocate an identifier
// @Description Issues the next free fixed-width code of a namespace. Counter values skipped over are not reused.
// @Tags        Admin
// @Produce     json
// @Param       namespace  path   string  true   "Sequence namespace"  example(jobs)
// @Param       width      query  int     false  "Code width"  minimum(1) maximum(12) default(6)
// @Param       alphabet   query  string  false  "decimal or base36"  default(decimal)
// @Success     201  {object}  handlers.AllocateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Range exhausted"
// @Router      /admin/sequences/{namespace} [post]
func (h *Handlers) AllocateID(c *gin.Context) {
	ns := strings.ToLower(strings.TrimSpace(c.Param("namespace")))
	width := utils.AtoiDefault(c.Query("width"), services.JobIDWidth)

	err := validation.Errors{
		"namespace": validation.Validate(ns, validation.Required, validation.Length(1, 64), validation.Match(namespacePattern)),
		"width":     validation.Validate(width, validation.Min(1), validation.Max(maxSequenceWidth)),
	}.Filter()
	if err != nil {
		failWith(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), map[string]any{"fields": err})
		return
	}
	alphabet, err := sequence.ParseAlphabet(c.Query("alphabet"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	id, err := h.ids.Next(c.Request.Context(), ns, width, alphabet)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, AllocateResponse{Namespace: ns, ID: id})
}
