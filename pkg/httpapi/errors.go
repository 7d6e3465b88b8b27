package httpapi

import "net/http"

// Error is an API-visible error with a stable HTTP status code. Services
// return *Error for every failure a client is supposed to distinguish;
// anything else is treated as an internal error by the response boundary.
type Error struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(status int, message string, details ...string) *Error {
	if details == nil {
		details = []string{}
	}
	return &Error{
		StatusCode: status,
		Message:    message,
		Errors:     details,
	}
}

func BadRequest(message string, details ...string) *Error {
	return NewError(http.StatusBadRequest, message, details...)
}

func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return NewError(http.StatusConflict, message)
}

func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}
