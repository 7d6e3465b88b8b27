package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Response is the envelope every successful handler reply is wrapped in.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type errorBody struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// JSON writes data inside the success envelope.
func JSON(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// Err maps err to the error envelope. Typed *Error values keep their
// status and message; everything else becomes a 500 without leaking the
// underlying error to the client.
func Err(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("Internal server error")
	}

	details := apiErr.Errors
	if details == nil {
		details = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	if encErr := json.NewEncoder(w).Encode(errorBody{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     details,
	}); encErr != nil {
		logrus.WithError(encErr).Error("Failed to encode error response")
	}
}
