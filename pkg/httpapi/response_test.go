package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "abc"}, "Created")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		StatusCode int               `json:"statusCode"`
		Data       map[string]string `json:"data"`
		Message    string            `json:"message"`
		Success    bool              `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "abc", body.Data["id"])
	assert.Equal(t, "Created", body.Message)
	assert.True(t, body.Success)
}

func TestErrTypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, Conflict("Listing is no longer available"))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		StatusCode int      `json:"statusCode"`
		Message    string   `json:"message"`
		Success    bool     `json:"success"`
		Errors     []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, body.StatusCode)
	assert.Equal(t, "Listing is no longer available", body.Message)
	assert.False(t, body.Success)
	assert.NotNil(t, body.Errors)
	assert.Empty(t, body.Errors)
}

func TestErrWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, fmt.Errorf("handler context: %w", NotFound("Listing not found")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrUnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, errors.New("mongo: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["message"],
		"internal details never reach the client")
}

func TestErrDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, BadRequest("Validation failed", "email is required", "password too short"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"email is required", "password too short"}, body.Errors)
}
