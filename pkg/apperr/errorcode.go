package apperr

import "net/http"

// Client-side classification codes. The message is the default notification
// text; pkg/i18n carries the localized variants under the same code.
var (
	ErrorCodeBusinessFailure     = NewErrorCode("business_failure", "request failed", 0, http.StatusOK)
	ErrorCodeHTTPFailure         = NewErrorCode("http_failure", "request failed", 0, 0)
	ErrorCodeUnauthorized        = NewErrorCode("unauthorized", "not logged in, please log in first", 401, http.StatusUnauthorized)
	ErrorCodeNetworkFailure      = NewErrorCode("network_failure", "network request failed, please check your network connection", 0, 0)
	ErrorCodeConfigFailure       = NewErrorCode("config_failure", "request configuration error", 0, 0)
	ErrorCodeNotLoggedIn         = NewErrorCode("not_logged_in", "not logged in, please log in first", 0, 0)
	ErrorCodeSessionExpired      = NewErrorCode("session_expired", "session expired, please log in again", 0, http.StatusUnauthorized)
	ErrorCodeAuthorizationFailed = NewErrorCode("authorization_failed", "authorization failed, please log in again", 0, 0)
	ErrorCodeProbeNetwork        = NewErrorCode("probe_network_failure", "network error, please try again later", 0, 0)
)

// Backend codes. Value is the envelope business code.
var (
	ErrorCodeSuccess        = NewErrorCode("success", "success", 0, http.StatusOK)
	ErrorCodeInvalidRequest = NewErrorCode("invalid_request", "invalid request parameters", 400, http.StatusOK)
	ErrorCodeForbidden      = NewErrorCode("forbidden", "forbidden", 403, http.StatusOK)
	ErrorCodeNotFound       = NewErrorCode("not_found", "resource not found", 404, http.StatusNotFound)
	ErrorCodeInternal       = NewErrorCode("internal_error", "internal server error", 500, http.StatusInternalServerError)
	ErrorCodeUserNotFound   = NewErrorCode("user_not_found", "user not found", 1001, http.StatusOK)
	ErrorCodeUsernameExists = NewErrorCode("username_exists", "username already exists", 1002, http.StatusOK)
	ErrorCodeEmailExists    = NewErrorCode("email_exists", "email already exists", 1003, http.StatusOK)
	ErrorCodeLoginFailed    = NewErrorCode("login_failed", "login failed, wrong username or password", 1004, http.StatusOK)
	ErrorCodeInvalidToken   = NewErrorCode("invalid_token", "invalid token", 1005, http.StatusUnauthorized)
	ErrorCodeTokenExpired   = NewErrorCode("token_expired", "token expired", 1006, http.StatusUnauthorized)
	ErrorCodePlanNotFound   = NewErrorCode("plan_not_found", "travel plan not found", 2001, http.StatusOK)
	ErrorCodeNoPermission   = NewErrorCode("no_permission", "no permission to operate on this resource", 2005, http.StatusOK)
	ErrorCodeRateLimited    = NewErrorCode("rate_limited", "too many requests", 429, http.StatusTooManyRequests)
)

// ErrorCode describes a canonical application error code.
// value is the numeric business code written into response envelopes.
type ErrorCode struct {
	code       string
	message    string
	value      int
	httpStatus int
}

func NewErrorCode(code, message string, value, httpStatus int) *ErrorCode {
	return &ErrorCode{code: code, message: message, value: value, httpStatus: httpStatus}
}

func (ec *ErrorCode) Code() string    { return ec.code }
func (ec *ErrorCode) Message() string { return ec.message }
func (ec *ErrorCode) Value() int      { return ec.value }
func (ec *ErrorCode) HTTPStatus() int { return ec.httpStatus }

// SessionInvalidating reports whether a failure with this code clears the
// credential store and sends the user to the login page.
func (ec *ErrorCode) SessionInvalidating() bool {
	switch ec {
	case ErrorCodeUnauthorized, ErrorCodeSessionExpired, ErrorCodeAuthorizationFailed, ErrorCodeNotLoggedIn:
		return true
	}
	return false
}
