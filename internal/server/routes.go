package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/owner"
	"github.com/folio/folio/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := s.deps.Health
	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)
	s.router.Get("/health/startup", health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler(s.deps.Identity, s.deps.Build, s.deps.Backends))
	s.router.Get("/metrics", MetricsHandler)

	if s.deps.API != nil {
		s.router.Route("/api", s.apiRoutes)
	}

	s.registerAdminEndpoint()
}

// apiRoutes mounts the content API. Reads are public and widen for owner
// sessions; writes and dashboards require the owner.
func (s *Server) apiRoutes(r chi.Router) {
	a := s.deps.API
	sessions := a.Sessions
	if sessions == nil {
		sessions = &owner.Sessions{}
	}
	r.Use(sessions.Identify)
	ownerOnly := r.With(sessions.RequireOwner)

	r.Get("/projects", a.ListProjects)
	ownerOnly.Post("/projects", a.CreateProject)
	ownerOnly.Patch("/projects", a.UpdateProject)
	ownerOnly.Delete("/projects", a.DeleteProject)
	ownerOnly.Post("/projects/sync-github", a.SyncGitHubProjects)

	r.Get("/blog", a.ListBlogPosts)
	ownerOnly.Post("/blog", a.CreateBlogPost)
	ownerOnly.Patch("/blog", a.UpdateBlogPost)
	ownerOnly.Delete("/blog", a.DeleteBlogPost)

	r.Post("/contact", a.SubmitContact)
	ownerOnly.Get("/contact", a.ListContactMessages)
	ownerOnly.Patch("/contact", a.UpdateContactMessage)

	r.Post("/analytics", a.RecordEvent)
	ownerOnly.Get("/analytics", a.AnalyticsSummary)

	r.Get("/settings", a.ListSettings)
	ownerOnly.Post("/settings", a.UpsertSetting)
	ownerOnly.Patch("/settings", a.UpsertSetting)
	ownerOnly.Delete("/settings", a.DeleteSetting)

	r.Get("/github-projects", a.GitHubProjects)
	r.Get("/og", a.OGImage)

	r.Post("/owner/login", a.Login)
	r.Post("/owner/logout", a.Logout)
	r.Get("/owner/session", a.Session)
}

// registerAdminEndpoint mounts the signal endpoint when server.admin_token
// is set.
func (s *Server) registerAdminEndpoint() {
	if s.cfg.AdminToken == "" {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Debug("Admin signal endpoint disabled (server.admin_token not set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.cfg.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	observability.Info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("rate_limit", "10/min, burst 5"))
	observability.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
