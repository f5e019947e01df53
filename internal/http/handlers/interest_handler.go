// Interest (lead) HTTP handlers.
//
//   - POST /jobs/{id}/interests      (provider expresses interest)
//   - GET  /jobs/{id}/interests      (job owner lists interests, ETag)
//   - GET  /interests                (provider's own interests)
//   - GET  /interests/{id}           (either party)
//   - POST /interests/{id}/share     (customer shares contact)
//   - POST /interests/{id}/pay       (provider pays, Idempotency-Key aware)
//   - POST /interests/{id}/cancel    (either party)
//   - GET  /interests/{id}/contact   (provider, after payment)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/http/middleware"
)

// JobInterestsResponse is a page of a job's interests with status totals.
type JobInterestsResponse struct {
	Interests  []domain.Interest               `json:"interests"`
	Counts     map[domain.InterestStatus]int64 `json:"counts"`
	Pagination Pagination                      `json:"pagination"`
}

// ListInterestsResponse is a page of the provider's interests.
type ListInterestsResponse struct {
	Interests  []domain.Interest `json:"interests"`
	Pagination Pagination        `json:"pagination"`
}

// CreateInterest godoc
// @ID          createInterest
// @Summary     Express interest in a job
// @Tags        Interests
// @Produce     json
// @Param       X-User-ID    header  string  true  "Caller id"    example(prov-1)
// @Param       X-User-Role  header  string  true  "Caller role"  example(provider)
// @Param       id           path    string  true  "Job id"       example(000042)
// @Success     201  {object}  domain.Interest
// @Failure     403  {object}  handlers.ErrorResponse  "Not a provider"
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already interested or job closed"
// @Router      /jobs/{id}/interests [post]
func (h *Handlers) CreateInterest(c *gin.Context) {
	in, err := h.leads.Create(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Location", "/interests/"+in.ID)
	ok(c, http.StatusCreated, in)
}

// ListJobInterests godoc
// @ID          listJobInterests
// @Summary     Interests on an own job
// @Description Returns a page of interests and per-status totals. Supports a weak ETag via If-None-Match.
// @Tags        Interests
// @Produce     json
// @Param       id             path    string  true  "Job id"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.JobInterestsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Router      /jobs/{id}/interests [get]
func (h *Handlers) ListJobInterests(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("id")
	page, pageSize := clampPagination(c)

	res, err := h.leads.ListForJob(ctx, caller(c), jobID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	// Ownership is checked above, so the ETag never leaks another job's state.
	if h.stats != nil {
		if count, latest, err := h.stats.InterestsStats(ctx, jobID); err == nil {
			if notModified(c, "interests", jobID, count, latest) {
				return
			}
		}
	}

	ok(c, http.StatusOK, JobInterestsResponse{
		Interests:  res.Items,
		Counts:     res.Counts,
		Pagination: newPagination(page, pageSize, res.Total),
	})
}

// ListMyInterests godoc
// @ID          listMyInterests
// @Summary     Own interests (provider)
// @Tags        Interests
// @Produce     json
// @Param       page       query   int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int  false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListInterestsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a provider"
// @Router      /interests [get]
func (h *Handlers) ListMyInterests(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.leads.ListForProvider(c.Request.Context(), caller(c), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListInterestsResponse{Interests: items, Pagination: newPagination(page, pageSize, total)})
}

// GetInterest godoc
// @ID          getInterest
// @Summary     Get an interest
// @Tags        Interests
// @Produce     json
// @Param       id  path  string  true  "Interest id"  format(uuid)
// @Success     200  {object}  domain.Interest
// @Failure     403  {object}  handlers.ErrorResponse  "Not a party"
// @Failure     404  {object}  handlers.ErrorResponse  "Interest not found"
// @Router      /interests/{id} [get]
func (h *Handlers) GetInterest(c *gin.Context) {
	in, err := h.leads.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

// ShareContact godoc
// @ID          shareContact
// @Summary     Share contact with the provider
// @Description Moves INTERESTED to CONTACT_SHARED. Only the job owner may call it.
// @Tags        Interests
// @Produce     json
// @Param       id  path  string  true  "Interest id"  format(uuid)
// @Success     200  {object}  domain.Interest
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Interest not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state (details.current_state)"
// @Router      /interests/{id}/share [post]
func (h *Handlers) ShareContact(c *gin.Context) {
	in, err := h.leads.ShareContact(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

// PayForAccess godoc
// @ID          payForAccess
// @Summary     Pay for contact access
// @Description Debits the job's access fee from the provider wallet and moves CONTACT_SHARED to PAID_ACCESS in one step.
// @Description Repeating a request with the same Idempotency-Key returns the original payment with Idempotency-Replayed: true.
// @Tags        Interests
// @Produce     json
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Interest id"  format(uuid)
// @Success     200  {object}  services.PaymentResult
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient funds (details.shortfall)"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the provider"
// @Failure     404  {object}  handlers.ErrorResponse  "Interest not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state (details.current_state)"
// @Router      /interests/{id}/pay [post]
func (h *Handlers) PayForAccess(c *gin.Context) {
	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.leads.PayForAccessOnce(c.Request.Context(), caller(c), c.Param("id"), key)
	if err != nil {
		failErr(c, err)
		return
	}
	markReplay(c, res.Replayed)
	ok(c, http.StatusOK, res)
}

// CancelInterest godoc
// @ID          cancelInterest
// @Summary     Cancel an interest
// @Description Either party may cancel before payment. PAID_ACCESS is final.
// @Tags        Interests
// @Produce     json
// @Param       id  path  string  true  "Interest id"  format(uuid)
// @Success     200  {object}  domain.Interest
// @Failure     403  {object}  handlers.ErrorResponse  "Not a party"
// @Failure     404  {object}  handlers.ErrorResponse  "Interest not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state (details.current_state)"
// @Router      /interests/{id}/cancel [post]
func (h *Handlers) CancelInterest(c *gin.Context) {
	in, err := h.leads.Cancel(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

// GetContact godoc
// @ID          getContact
// @Summary     Released customer contact
// @Tags        Interests
// @Produce     json
// @Param       id  path  string  true  "Interest id"  format(uuid)
// @Success     200  {object}  domain.Contact
// @Failure     403  {object}  handlers.ErrorResponse  "Not the provider"
// @Failure     409  {object}  handlers.ErrorResponse  "Not paid yet"
// @Router      /interests/{id}/contact [get]
func (h *Handlers) GetContact(c *gin.Context) {
	ct, err := h.leads.Contact(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ct)
}
