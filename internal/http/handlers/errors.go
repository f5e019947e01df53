// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, the rest name
// a lead or wallet condition that the status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "insufficient_funds",
//	  "message": "insufficient funds: balance 5, required 10",
//	  "details": {"balance": 5, "required": 10, "shortfall": 5}
//	}
package handlers

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRateLimited        = "too_many_requests"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
	ErrCodeServiceUnavailable = "service_unavailable"

	// Domain-specific:
	ErrCodeInvalidState      = "invalid_state"
	ErrCodeInsufficientFunds = "insufficient_funds"
	ErrCodeResourceExhausted = "resource_exhausted"
	ErrCodeJobNotActive      = "job_not_active"
)
