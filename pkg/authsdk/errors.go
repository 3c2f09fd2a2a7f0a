package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/keystone/pkg/httpx"
)

// Stable error codes returned in the "error" field of every failure body.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeServerError    = "server_error"

	ErrorCodeCredentialNotFound = "credential_not_found"
	ErrorCodePasswordMismatch   = "password_mismatch"
	ErrorCodePasswordUnchanged  = "password_unchanged"
	ErrorCodePasswordExpired    = "password_expired"
	ErrorCodeAccountInactive    = "account_inactive"
	ErrorCodeRoleInactive       = "role_inactive"

	ErrorCodeTokenInvalid     = httpx.CodeTokenInvalid
	ErrorCodeTokenExpired     = httpx.CodeTokenExpired
	ErrorCodePermissionDenied = httpx.CodePermissionDenied

	ErrorCodeAPIKeyMissing       = "api_key_missing"
	ErrorCodeAPIKeyMalformed     = "api_key_malformed"
	ErrorCodeAPIKeySchemaInvalid = "api_key_schema_invalid"
	ErrorCodeAPIKeyNotFound      = "api_key_not_found"
	ErrorCodeAPIKeyInactive      = "api_key_inactive"
	ErrorCodeAPIKeyInvalid       = "api_key_invalid"

	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
)

// Error is the wire error shared by the server (to write responses) and
// the SDK client (to surface them).
type Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code so callers can errors.Is against the predefined
// values regardless of description.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WriteError writes e as a JSON error response.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// WithDescription returns a copy of e carrying desc.
func (e *Error) WithDescription(desc string) *Error {
	cp := *e
	cp.Description = desc
	return &cp
}

func NewError(statusCode int, code, description string) *Error {
	return &Error{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = NewError(http.StatusBadRequest, ErrorCodeInvalidRequest, "the request is malformed or missing required fields")
	ErrNotFound       = NewError(http.StatusNotFound, ErrorCodeNotFound, "resource not found")
	ErrServerError    = NewError(http.StatusInternalServerError, ErrorCodeServerError, "internal server error")

	ErrCredentialNotFound = NewError(http.StatusNotFound, ErrorCodeCredentialNotFound, "no account matches the supplied identifier")
	ErrPasswordMismatch   = NewError(http.StatusBadRequest, ErrorCodePasswordMismatch, "password does not match")
	ErrPasswordUnchanged  = NewError(http.StatusBadRequest, ErrorCodePasswordUnchanged, "new password must differ from the current password")
	ErrAccountInactive    = NewError(http.StatusForbidden, ErrorCodeAccountInactive, "account is inactive")
	ErrRoleInactive       = NewError(http.StatusForbidden, ErrorCodeRoleInactive, "role is inactive")

	// ErrPasswordExpired is the hard failure used by refresh. Login reports
	// the same code alongside issued tokens instead.
	ErrPasswordExpired = NewError(http.StatusForbidden, ErrorCodePasswordExpired, "password has expired and must be changed")

	ErrTokenInvalid     = NewError(http.StatusUnauthorized, ErrorCodeTokenInvalid, "token is missing or invalid")
	ErrTokenExpired     = NewError(http.StatusUnauthorized, ErrorCodeTokenExpired, "token has expired")
	ErrPermissionDenied = NewError(http.StatusForbidden, ErrorCodePermissionDenied, "missing required permissions")

	ErrAPIKeyMissing       = NewError(http.StatusUnauthorized, ErrorCodeAPIKeyMissing, "api key header is missing")
	ErrAPIKeyMalformed     = NewError(http.StatusUnauthorized, ErrorCodeAPIKeyMalformed, "api key is malformed")
	ErrAPIKeySchemaInvalid = NewError(http.StatusUnauthorized, ErrorCodeAPIKeySchemaInvalid, "api key header must be <key>:<proof>")
	ErrAPIKeyNotFound      = NewError(http.StatusUnauthorized, ErrorCodeAPIKeyNotFound, "api key not recognised")
	ErrAPIKeyInactive      = NewError(http.StatusUnauthorized, ErrorCodeAPIKeyInactive, "api key is inactive")
	ErrAPIKeyInvalid       = NewError(http.StatusUnauthorized, ErrorCodeAPIKeyInvalid, "api key proof is invalid")
)

// parseErrorResponse turns a non-2xx response into an *Error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
