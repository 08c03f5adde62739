package meta

import "fmt"

// APIError is a translated Marketing API error. Message is safe to show to
// end users; Code, Subcode and FBTraceID are operator-facing diagnostics and
// are logged, never surfaced.
type APIError struct {
	Code       int
	Subcode    int
	Type       string
	Message    string
	FBTraceID  string
	HTTPStatus int
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusHint maps the error to the HTTP status an API surface serving
// merchants should respond with. Token problems become 401, permission and
// restriction problems 403, validation problems 422, and everything
// transient 502.
func (e *APIError) StatusHint() int {
	switch e.Code {
	case codeInvalidToken:
		return 401
	case codePermissionDenied, codeAccountRestricted:
		return 403
	case codeInvalidParameter:
		return 422
	}
	if e.Code >= 200 && e.Code < 300 {
		return 403
	}
	return 502
}

// Well-known Graph API error codes the client makes decisions on.
const (
	codeAPIUnknown        = 1
	codeAPIService        = 2
	codeAppRateLimit      = 4
	codePermissionDenied  = 10
	codeUserRateLimit     = 17
	codePageRateLimit     = 32
	codeInvalidParameter  = 100
	codeInvalidToken      = 190
	codeAccountRestricted = 368
	codeCustomRateLimit   = 613
	codeAdsRateLimit      = 80004
)

// isRetryableCode reports whether a Graph error code represents transient
// platform unavailability or rate limiting. Permission, token and
// validation errors are never retryable.
func isRetryableCode(code int) bool {
	switch code {
	case codeAPIUnknown, codeAPIService, codeAppRateLimit, codeUserRateLimit,
		codePageRateLimit, codeCustomRateLimit, codeAdsRateLimit:
		return true
	}
	return false
}

// isRetryableStatus reports whether an HTTP status alone warrants a retry,
// for responses whose body carried no parseable error envelope.
func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503:
		return true
	}
	return false
}

// translate maps a Graph error envelope to a short human-readable message.
// Unknown codes fall back to the remote-provided message, then to a generic
// string, so a new remote code is a visible default branch rather than an
// empty error.
func translate(e graphError) string {
	switch e.Code {
	case codeAPIUnknown:
		return "the ads platform reported a temporary error, please try again"
	case codeAPIService:
		return "the ads platform is temporarily unavailable"
	case codeAppRateLimit, codeUserRateLimit, codePageRateLimit,
		codeCustomRateLimit, codeAdsRateLimit:
		return "rate limit exceeded, please try again shortly"
	case codeInvalidToken:
		return "access token expired or invalid, please reconnect your account"
	case codeAccountRestricted:
		return "ad account is temporarily restricted"
	case codeInvalidParameter:
		if e.ErrorUserMsg != "" {
			return e.ErrorUserMsg
		}
		if e.Message != "" {
			return e.Message
		}
		return "invalid campaign parameters"
	}
	// Codes 200-299 are the permission error family.
	if e.Code >= 200 && e.Code < 300 {
		return "insufficient permissions for this ad account"
	}
	if e.ErrorUserMsg != "" {
		return e.ErrorUserMsg
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("ads API request failed (code %d)", e.Code)
}
