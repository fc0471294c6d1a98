// Package handlers defines HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable; clients branch on
// them for programmatic error handling while the accompanying message stays
// free to change.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeEmpty            = "empty"
	ErrCodeCfgMissing       = "cfg_missing"
	ErrCodeSelfChat         = "self_chat"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
