package core

import (
	"encoding/json"
	"time"
)

// ProjectStatus is the publication state of a project.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectPublished ProjectStatus = "published"
	ProjectArchived  ProjectStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectPublished, ProjectArchived:
		return true
	default:
		return false
	}
}

// Project is a portfolio entry, either authored by the owner or synced from
// GitHub.
type Project struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	LongDescription *string       `json:"long_description"`
	ThumbnailURL    *string       `json:"thumbnail_url"`
	DemoURL         *string       `json:"demo_url"`
	RepoURL         *string       `json:"repo_url"`
	TechStack       []string      `json:"tech_stack"`
	Categories      []string      `json:"categories"`
	IsPinned        bool          `json:"is_pinned"`
	Status          ProjectStatus `json:"status"`
	DisplayOrder    int           `json:"display_order"`
	GitHubRepoName  *string       `json:"github_repo_name"`
	IsGitHubSynced  bool          `json:"is_github_synced"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeletedAt       *time.Time    `json:"deleted_at"`
}

// BlogPost is a long-form article.
type BlogPost struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Excerpt            string     `json:"excerpt"`
	Content            string     `json:"content"`
	CoverImageURL      *string    `json:"cover_image_url"`
	Tags               []string   `json:"tags"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	IsPublished        bool       `json:"is_published"`
	PublishedAt        *time.Time `json:"published_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at"`
}

// ContactStatus tracks owner triage of a contact message.
type ContactStatus string

const (
	ContactUnread   ContactStatus = "unread"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactUnread, ContactRead, ContactReplied, ContactArchived:
		return true
	default:
		return false
	}
}

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   *string       `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	Notes     *string       `json:"notes"`
	IPAddress *string       `json:"ip_address"`
	UserAgent *string       `json:"user_agent"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// EventType enumerates first-party analytics events.
type EventType string

const (
	EventPageView    EventType = "page_view"
	EventProjectView EventType = "project_view"
	EventCVDownload  EventType = "cv_download"
	EventContactOpen EventType = "contact_open"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventProjectView, EventCVDownload, EventContactOpen:
		return true
	default:
		return false
	}
}

// DeviceType is the coarse client class of an analytics event.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// MetadataValue is a sanitized analytics metadata scalar: a string, float64,
// bool, or nil.
type MetadataValue = any

// AnalyticsEvent is a stored, sanitized analytics event.
type AnalyticsEvent struct {
	ID          string                   `json:"id"`
	EventType   EventType                `json:"event_type"`
	PagePath    string                   `json:"page_path"`
	Referrer    *string                  `json:"referrer"`
	CountryCode *string                  `json:"country_code"`
	DeviceType  DeviceType               `json:"device_type"`
	SessionID   *string                  `json:"session_id"`
	Metadata    map[string]MetadataValue `json:"metadata"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Setting is a keyed site configuration value stored as raw JSON.
type Setting struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description *string         `json:"description"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
