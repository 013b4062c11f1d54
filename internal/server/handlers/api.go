package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/core"
	"github.com/folio/folio/internal/core/store"
	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/github"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/notify"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/ogcard"
	"github.com/folio/folio/internal/owner"
	"github.com/folio/folio/internal/ratelimit"
)

// ContentStore is the persistence the API handlers need. *store.Store
// implements it.
type ContentStore interface {
	ListProjects(ctx context.Context, filter store.ProjectFilter, page store.Page) ([]core.Project, int, error)
	GetProject(ctx context.Context, id string) (*core.Project, error)
	CreateProject(ctx context.Context, project *core.Project) (*core.Project, error)
	UpdateProject(ctx context.Context, project *core.Project) (*core.Project, error)
	SoftDeleteProject(ctx context.Context, id string) (*core.Project, error)

	ListBlogPosts(ctx context.Context, filter store.BlogFilter, page store.Page) ([]core.BlogPost, int, error)
	GetBlogPost(ctx context.Context, id string) (*core.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string, publicOnly, includeDeleted bool) (*core.BlogPost, error)
	CreateBlogPost(ctx context.Context, post *core.BlogPost) (*core.BlogPost, error)
	UpdateBlogPost(ctx context.Context, post *core.BlogPost) (*core.BlogPost, error)
	SoftDeleteBlogPost(ctx context.Context, id string) (*core.BlogPost, error)

	CreateContactMessage(ctx context.Context, msg *core.ContactMessage) (*core.ContactMessage, error)
	ListContactMessages(ctx context.Context, filter store.ContactFilter, page store.Page) ([]core.ContactMessage, int, error)
	UpdateContactMessage(ctx context.Context, id string, update store.ContactUpdate) (*core.ContactMessage, error)

	InsertAnalyticsEvent(ctx context.Context, event *core.AnalyticsEvent) (*core.AnalyticsEvent, error)
	ListAnalyticsEvents(ctx context.Context, since time.Time, eventType core.EventType) ([]core.AnalyticsEvent, error)

	GetSetting(ctx context.Context, key string) (*core.Setting, error)
	ListSettings(ctx context.Context, search string, page store.Page) ([]core.Setting, int, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage, description *string) (*core.Setting, error)
	DeleteSetting(ctx context.Context, key, id string) (*core.Setting, error)
}

// ProjectImporter runs the public GitHub import pipeline.
type ProjectImporter interface {
	Import(ctx context.Context) github.ImportResult
}

// ProjectSyncer runs the owner GitHub sync.
type ProjectSyncer interface {
	Sync(ctx context.Context, limit int) (*github.SyncResult, error)
}

// CardEncoder renders Open Graph cards.
type CardEncoder interface {
	Encode(w io.Writer, card ogcard.Card) error
}

// API serves the /api routes.
type API struct {
	Store    ContentStore
	Limiter  *ratelimit.Limiter
	Rules    map[string]ratelimit.Rule
	Notifier notify.Notifier
	Sessions *owner.Sessions
	Importer ProjectImporter
	Syncer   ProjectSyncer
	Cards    CardEncoder
	OG       config.OGConfig
	Clock    func() time.Time
}

func (a *API) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

func (a *API) rule(name string) ratelimit.Rule {
	if rule, ok := a.Rules[name]; ok {
		return rule
	}
	return ratelimit.DefaultRules()[name]
}

// allow applies the named rule to key. It writes the 429 response and
// returns false when the caller is over the limit. Limiter failures are
// logged and the request proceeds.
func (a *API) allow(w http.ResponseWriter, r *http.Request, ruleName, key, message string) bool {
	if a.Limiter == nil {
		return true
	}

	rule := a.rule(ruleName)
	result, err := a.Limiter.Check(r.Context(), rule, key)
	if err != nil {
		observability.Warn("Rate limiter unavailable; allowing request",
			zap.String("rule", ruleName),
			zap.Error(err))
	}
	metrics.RecordRateLimitCheck(ruleName, result.Allowed)
	if result.Allowed {
		return true
	}

	respondWithError(w, r, errwrap.NewRateLimitedError(message, result.RetryAfterSeconds))
	return false
}
