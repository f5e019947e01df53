// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, fail for explicit errors, failErr for translating service errors
// and the success writer.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_state",
//	  "message": "cannot move interest from PAID_ACCESS to CANCELLED",
//	  "details": {"current_state": "PAID_ACCESS"}
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/http/middleware"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// Structured context such as the shortfall or the current state
	Details map[string]any `json:"details,omitempty" swaggertype:"object"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, code, msg, nil)
}

func failWith(c *gin.Context, status int, code, msg string, details map[string]any) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Details:   details,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates an error returned by a service into the envelope.
// Unknown errors become 500 and their text is not echoed to the client.
func failErr(c *gin.Context, err error) {
	var (
		verr   *services.ValidationError
		state  *services.InvalidStateError
		funds  *services.InsufficientFundsError
		clash  *services.ConflictError
		fields validation.Errors
	)

	switch {
	case errors.As(err, &verr):
		var details map[string]any
		if errors.As(verr.Err, &fields) {
			details = map[string]any{"fields": fields}
		}
		failWith(c, http.StatusBadRequest, ErrCodeBadRequest, verr.Error(), details)
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed for this caller")
	case errors.Is(err, services.ErrJobNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "job not found")
	case errors.Is(err, services.ErrInterestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "interest not found")
	case errors.Is(err, services.ErrProfileNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "provider profile not found")
	case errors.As(err, &clash):
		failWith(c, http.StatusConflict, ErrCodeConflict, clash.Error(),
			map[string]any{"existing_id": clash.ExistingID})
	case errors.Is(err, services.ErrJobNotActive):
		fail(c, http.StatusConflict, ErrCodeJobNotActive, "job is not active")
	case errors.Is(err, services.ErrResourceExhausted):
		fail(c, http.StatusConflict, ErrCodeResourceExhausted, "identifier range exhausted")
	case errors.As(err, &state):
		failWith(c, http.StatusConflict, ErrCodeInvalidState, state.Error(),
			map[string]any{"current_state": state.Current})
	case errors.As(err, &funds):
		failWith(c, http.StatusPaymentRequired, ErrCodeInsufficientFunds, funds.Error(),
			map[string]any{"balance": funds.Balance, "required": funds.Required, "shortfall": funds.Shortfall})
	case errors.Is(err, repo.ErrDuplicate):
		fail(c, http.StatusConflict, ErrCodeConflict, "request already in progress")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request timed out")
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
