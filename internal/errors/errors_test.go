package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeValidation:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeExternalService:    http.StatusBadGateway,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatusFromCode(code), code)
	}
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) HTTPErrorResponse {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRespondWithValidationEnvelope(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("title", "must be at least 2 characters")

	req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "req-123"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewValidationError("Invalid request payload.", fields))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.False(t, body.OK)
	assert.Equal(t, CodeValidation, body.Error.Code)
	assert.Equal(t, "req-123", body.Error.RequestID)
	fieldErrors, ok := body.Error.Details["fieldErrors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fieldErrors, "title")
}

func TestRespondWithRateLimitedSetsRetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewRateLimitedError("Too many messages.", 42))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	body := decodeErrorBody(t, rec)
	assert.EqualValues(t, 42, body.Error.Details["retryAfterSeconds"])
}

func TestRespondWithPlainErrorHidesInternals(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, stderrors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	body := decodeErrorBody(t, rec)
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Nil(t, body.Error.Details)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestWrapCarriesCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "abc")
	env := WrapExternalService(ctx, stderrors.New("boom"), "GitHub unavailable.")
	assert.Equal(t, CodeExternalService, env.Code)
	assert.Equal(t, "abc", env.CorrelationID)
	assert.Equal(t, "boom", env.Context["wrapped_error"])
}
