// Wallet HTTP handlers.
//
//   - GET /wallet               (balance and per-type totals)
//   - GET /wallet/transactions  (journal, paginated, ETag)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// WalletResponse is the caller's balance and journal summary.
type WalletResponse struct {
	Wallet  *domain.Wallet   `json:"wallet"`
	Summary []repo.TypeTotal `json:"summary"`
}

// ListTransactionsResponse wraps a page of journal rows.
type ListTransactionsResponse struct {
	Transactions []domain.WalletTransaction `json:"transactions"`
	Pagination   Pagination                 `json:"pagination"`
}

// GetWallet godoc
// @ID          getWallet
// @Summary     Own wallet
// @Description Balance in coins plus totals per transaction type. A user without a wallet sees a zero balance.
// @Tags        Wallet
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"  example(prov-1)
// @Success     200  {object}  handlers.WalletResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No caller identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /wallet [get]
func (h *Handlers) GetWallet(c *gin.Context) {
	ctx := c.Request.Context()
	uid := caller(c).UserID

	w, err := h.wallets.Balance(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	sum, err := h.wallets.Summary(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, WalletResponse{Wallet: w, Summary: sum})
}

// ListTransactions godoc
// @ID          listTransactions
// @Summary     Own wallet journal (paginated)
// @Description Newest first. Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Wallet
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"txns:prov-1:3:1700000000000\")
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListTransactionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /wallet/transactions [get]
func (h *Handlers) ListTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := caller(c).UserID
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.stats != nil {
		if count, latest, err := h.stats.TransactionsStats(ctx, uid); err == nil {
			if notModified(c, "txns", uid, count, latest) {
				return
			}
		}
	}

	items, total, err := h.wallets.History(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListTransactionsResponse{Transactions: items, Pagination: newPagination(page, pageSize, total)})
}
