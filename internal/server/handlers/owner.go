package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/folio/folio/internal/api"
	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/ratelimit"
)

// LoginRequest is the body of POST /api/owner/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionState reports whether the caller holds an owner session.
type SessionState struct {
	Authenticated bool `json:"authenticated"`
}

// Login handles POST /api/owner/login and sets the session cookie.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if a.Sessions == nil || !a.Sessions.Configured() {
		respondWithError(w, r, errwrap.NewServiceUnavailableError("Owner password is not configured."))
		return
	}

	var payload LoginRequest
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	// The configured password may carry meaningful whitespace, so only the
	// emptiness check trims.
	if strings.TrimSpace(payload.Password) == "" || !a.Sessions.CheckPassword(payload.Password) {
		observability.Warn("Owner login rejected", zap.String("client_ip", ratelimit.ClientIP(r)))
		respondWithError(w, r, errwrap.NewUnauthorizedError("Invalid credentials."))
		return
	}

	token, _, err := a.Sessions.Issue()
	if err != nil {
		respondWithError(w, r, errwrap.WrapInternal(r.Context(), err, "Unable to create session."))
		return
	}
	http.SetCookie(w, a.Sessions.SessionCookie(token))
	api.OK(w, SessionState{Authenticated: true}, nil)
}

// Logout handles POST /api/owner/logout by expiring the session cookie.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if a.Sessions != nil {
		http.SetCookie(w, a.Sessions.ClearCookie())
	}
	api.OK(w, SessionState{Authenticated: false}, nil)
}

// Session handles GET /api/owner/session.
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := a.Sessions != nil && a.Sessions.Authenticated(r)
	api.OK(w, SessionState{Authenticated: authenticated}, nil)
}
