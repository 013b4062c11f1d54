package owner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/config"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newSessions(t *testing.T, now time.Time) *Sessions {
	t.Helper()
	s := NewSessions(config.OwnerConfig{Password: "correct horse", SessionSecret: "signing-secret"})
	s.Clock = fixedClock(now)
	return s
}

func TestCheckPassword(t *testing.T) {
	s := newSessions(t, time.Now())
	assert.True(t, s.CheckPassword("correct horse"))
	assert.False(t, s.CheckPassword("correct horsE"))
	assert.False(t, s.CheckPassword(""))

	unset := NewSessions(config.OwnerConfig{})
	assert.False(t, unset.Configured())
	assert.False(t, unset.CheckPassword(""))
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newSessions(t, now)

	token, expires, err := s.Issue()
	require.NoError(t, err)
	assert.Equal(t, now.Add(DefaultSessionTTL), expires)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, expires.Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newSessions(t, now)
	token, _, err := s.Issue()
	require.NoError(t, err)

	s.Clock = fixedClock(now.Add(DefaultSessionTTL + time.Minute))
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsForgedTokens(t *testing.T) {
	now := time.Now()
	s := newSessions(t, now)

	other := NewSessions(config.OwnerConfig{Password: "correct horse", SessionSecret: "other-secret"})
	forged, _, err := other.Issue()
	require.NoError(t, err)
	_, err = s.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidSession, "wrong signature")

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		ID:        "jti",
	}}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("signing-secret"))
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidSession, "wrong algorithm")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidSession, "unsigned")

	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSecretFallsBackToPassword(t *testing.T) {
	s := NewSessions(config.OwnerConfig{Password: "only-password"})
	token, _, err := s.Issue()
	require.NoError(t, err)

	same := NewSessions(config.OwnerConfig{Password: "only-password"})
	_, err = same.Verify(token)
	assert.NoError(t, err)
}

func TestCookies(t *testing.T) {
	s := NewSessions(config.OwnerConfig{Password: "pw", SecureCookie: true})
	cookie := s.SessionCookie("tok")
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 14*24*60*60, cookie.MaxAge)

	cleared := s.ClearCookie()
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)
}

func TestRequireOwner(t *testing.T) {
	s := newSessions(t, time.Now())
	var sawOwner bool
	handler := s.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawOwner = IsOwner(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		OK    bool `json:"ok"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Equal(t, "Owner authentication required.", body.Error.Message)

	token, _, err := s.Issue()
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	req.AddCookie(s.SessionCookie(token))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, sawOwner)
}

func TestIdentify(t *testing.T) {
	s := newSessions(t, time.Now())
	var sawOwner bool
	handler := s.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawOwner = IsOwner(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.False(t, sawOwner)

	token, _, err := s.Issue()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.AddCookie(s.SessionCookie(token))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, sawOwner)
}
