package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/config"
	apperrors "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/owner"
	"github.com/folio/folio/internal/server/handlers"
)

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	t.Cleanup(handlers.ResetHTTPErrorResponder)

	return New(cfg, Deps{
		API: &handlers.API{
			Sessions: owner.NewSessions(config.OwnerConfig{Password: "hunter22"}),
		},
		Identity: &appidentity.Identity{BinaryName: "folio"},
		Build:    handlers.BuildInfo{Version: "0.1.0"},
		Backends: handlers.Backends{Store: "libsql", RateLimit: "memory"},
	})
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{Host: "127.0.0.1"})

	rec := serve(srv, http.MethodGet, "/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.OK)
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)

	rec = serve(srv, http.MethodPut, "/version")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apperrors.CodeMethodNotAllowed, decodeError(t, rec).Error.Code)
}

func TestOwnerRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/projects"},
		{http.MethodPatch, "/api/projects"},
		{http.MethodDelete, "/api/projects"},
		{http.MethodPost, "/api/projects/sync-github"},
		{http.MethodPost, "/api/blog"},
		{http.MethodGet, "/api/contact"},
		{http.MethodPatch, "/api/contact"},
		{http.MethodGet, "/api/analytics"},
		{http.MethodPost, "/api/settings"},
		{http.MethodDelete, "/api/settings"},
	}
	for _, tc := range cases {
		rec := serve(srv, tc.method, tc.path)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, apperrors.CodeUnauthorized, decodeError(t, rec).Error.Code)
	}
}

func TestPublicRoutesReachHandlers(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	rec := serve(srv, http.MethodGet, "/api/owner/session")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	rec = serve(srv, http.MethodGet, "/api/github-projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"unavailable"`)

	rec = serve(srv, http.MethodGet, "/api/og")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersionAndLiveness(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	rec := serve(srv, http.MethodGet, "/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"folio"`)
	assert.Contains(t, rec.Body.String(), `"store":"libsql"`)

	rec = serve(srv, http.MethodGet, "/health/live")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAdminSignalEndpoint(t *testing.T) {
	disabled := newTestServer(t, config.ServerConfig{})
	assert.Equal(t, http.StatusNotFound, serve(disabled, http.MethodPost, "/admin/signal").Code)

	enabled := newTestServer(t, config.ServerConfig{AdminToken: "s3cret"})
	req := httptest.NewRequest(http.MethodPost, "/admin/signal", strings.NewReader(`{"signal":"SIGHUP"}`))
	rec := httptest.NewRecorder()
	enabled.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
	assert.NotEqual(t, http.StatusOK, rec.Code, "missing bearer token must be rejected")
}

func TestServerAddrAndTimeouts(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{Host: "0.0.0.0", Port: 8080})
	assert.Equal(t, "0.0.0.0:8080", srv.Addr())
	assert.Equal(t, 8080, srv.Port())
	assert.Equal(t, "10s", srv.ShutdownTimeout().String())
}
