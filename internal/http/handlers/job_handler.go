// Job HTTP handlers.
//
//   - POST /jobs                 (create, customer)
//   - GET  /jobs                 (own jobs, paginated)
//   - GET  /jobs/{id}            (single job, contact withheld)
//   - POST /jobs/{id}/close      (close own job)
//   - GET  /jobs/matching        (provider feed)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/services"
)

// CreateJobRequest is the JSON payload for posting a job. Either Location or
// both coordinates must be given.
type CreateJobRequest struct {
	Title        string   `json:"title" example:"Fix leaking kitchen sink"`
	Category     string   `json:"category" example:"plumbing"`
	Description  string   `json:"description" example:"Water under the cabinet since Monday"`
	Location     string   `json:"location" example:"Port Harcourt"`
	Latitude     *float64 `json:"latitude,omitempty" example:"4.8156"`
	Longitude    *float64 `json:"longitude,omitempty" example:"7.0498"`
	FeeCoins     int64    `json:"fee_coins" example:"10"`
	ContactName  string   `json:"contact_name" example:"Ada"`
	ContactPhone string   `json:"contact_phone" example:"+2348012345678"`
	ContactEmail string   `json:"contact_email" example:"ada@example.com"`
}

func (r CreateJobRequest) input(customerID string) domain.JobInput {
	return domain.JobInput{
		CustomerID:   customerID,
		Title:        r.Title,
		Category:     r.Category,
		Description:  r.Description,
		LocationText: r.Location,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		FeeCoins:     r.FeeCoins,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		ContactEmail: r.ContactEmail,
	}
}

// ListJobsResponse wraps a page of jobs and pagination information.
type ListJobsResponse struct {
	Jobs       []domain.Job `json:"jobs"`
	Pagination Pagination   `json:"pagination"`
}

// MatchingJobsResponse is a page of the provider feed. Truncated reports
// that only the newest candidates were scanned.
type MatchingJobsResponse struct {
	Jobs       []services.JobMatch `json:"jobs"`
	Pagination Pagination          `json:"pagination"`
	Truncated  bool                `json:"truncated"`
}

// CreateJob godoc
// @ID          createJob
// @Summary     Post a job
// @Description Creates an ACTIVE job owned by the calling customer. Missing coordinates are resolved from the location text when possible.
// @Tags        Jobs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID    header  string  true  "Caller id"    example(cust-1)
// @Param       X-User-Role  header  string  true  "Caller role"  example(customer)
// @Param       body         body    handlers.CreateJobRequest  true  "Job payload"
//
// @Success     201  {object}  domain.Job
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a customer"
// @Failure     409  {object}  handlers.ErrorResponse  "Identifier range exhausted"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /jobs [post]
func (h *Handlers) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	who := caller(c)
	job, err := h.jobs.Create(c.Request.Context(), who, req.input(who.UserID))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Location", "/jobs/"+job.ID)
	ok(c, http.StatusCreated, job)
}

// ListJobs godoc
// @ID          listJobs
// @Summary     List own jobs (paginated)
// @Tags        Jobs
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller id"  example(cust-1)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListJobsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a customer"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /jobs [get]
func (h *Handlers) ListJobs(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.jobs.ListMine(c.Request.Context(), caller(c), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListJobsResponse{Jobs: items, Pagination: newPagination(page, pageSize, total)})
}

// GetJob godoc
// @ID          getJob
// @Summary     Get a job
// @Description Contact fields are never included; see GET /interests/{id}/contact.
// @Tags        Jobs
// @Produce     json
// @Param       id  path  string  true  "Job id"  example(000042)
// @Success     200  {object}  domain.Job
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Router      /jobs/{id} [get]
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, job)
}

// CloseJob godoc
// @ID          closeJob
// @Summary     Close own job
// @Description Closed jobs stop accepting new interests. Existing interests keep their state.
// @Tags        Jobs
// @Produce     json
// @Param       id  path  string  true  "Job id"
// @Success     200  {object}  domain.Job
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already closed"
// @Router      /jobs/{id}/close [post]
func (h *Handlers) CloseJob(c *gin.Context) {
	job, err := h.jobs.Close(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, job)
}

// MatchingJobs godoc
// @ID          matchingJobs
// @Summary     Jobs matching the calling provider
// @Description Active jobs whose category or title matches a provider skill. Jobs within the travel radius come first, nearest first; jobs whose location is unknown follow.
// @Tags        Jobs
// @Produce     json
// @Param       page       query   int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int  false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.MatchingJobsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a provider"
// @Failure     404  {object}  handlers.ErrorResponse  "No provider profile"
// @Router      /jobs/matching [get]
func (h *Handlers) MatchingJobs(c *gin.Context) {
	page, pageSize := clampPagination(c)
	res, err := h.matches.JobsForProvider(c.Request.Context(), caller(c), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MatchingJobsResponse{
		Jobs:       res.Items,
		Pagination: newPagination(page, pageSize, int64(res.Total)),
		Truncated:  res.Truncated,
	})
}
