// Package owner authenticates the single site owner with a password and a
// signed session cookie.
package owner

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/folio/folio/internal/config"
)

const (
	// CookieName carries the session token.
	CookieName = "owner_session"

	// DefaultSessionTTL is the lifetime of a session and its cookie.
	DefaultSessionTTL = 14 * 24 * time.Hour
)

var (
	// ErrNotConfigured is returned when no owner password is set.
	ErrNotConfigured = errors.New("owner password is not configured")
	// ErrInvalidSession is returned for missing, forged, or expired tokens.
	ErrInvalidSession = errors.New("invalid owner session")
)

// Claims are the registered claims of a session token: iat, exp and jti.
type Claims struct {
	jwt.RegisteredClaims
}

// Sessions issues and verifies owner session tokens.
type Sessions struct {
	password     string
	secret       []byte
	ttl          time.Duration
	secureCookie bool

	// Clock is injectable for tests.
	Clock func() time.Time
}

// NewSessions builds a session manager. The signing secret is
// session_secret, falling back to the password.
func NewSessions(cfg config.OwnerConfig) *Sessions {
	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		secret = cfg.Password
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		password:     cfg.Password,
		secret:       []byte(secret),
		ttl:          ttl,
		secureCookie: cfg.SecureCookie,
	}
}

// Configured reports whether an owner password is set.
func (s *Sessions) Configured() bool {
	return s != nil && s.password != ""
}

// CheckPassword compares candidate with the configured password in
// constant time. An empty candidate never matches.
func (s *Sessions) CheckPassword(candidate string) bool {
	if !s.Configured() || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.password)) == 1
}

// Issue signs a new session token.
func (s *Sessions) Issue() (string, time.Time, error) {
	if !s.Configured() || len(s.secret) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}

	now := s.now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify checks the signature, algorithm, and expiry of token.
func (s *Sessions) Verify(token string) (*Claims, error) {
	if !s.Configured() || len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidSession
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Authenticated reports whether r carries a valid session cookie.
func (s *Sessions) Authenticated(r *http.Request) bool {
	if r == nil {
		return false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	_, err = s.Verify(cookie.Value)
	return err == nil
}

// SessionCookie wraps token in the owner cookie.
func (s *Sessions) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the owner cookie.
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
