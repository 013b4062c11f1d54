// Package notify delivers owner notifications for new contact messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/folio/folio/internal/config"
)

const (
	DefaultResendEndpoint = "https://api.resend.com/emails"
	DefaultFromEmail      = "Portfolio <onboarding@resend.dev>"

	maxErrorBody = 2048
)

// ContactNotification describes a stored contact message.
type ContactNotification struct {
	Name    string
	Email   string
	Subject *string
	Message string
}

// Result reports what a notifier did. Attempted is false when delivery is
// not configured.
type Result struct {
	Attempted bool `json:"attempted"`
	Delivered bool `json:"delivered"`
}

// Notifier sends a contact notification. The returned Result is meaningful
// even when err is non-nil.
type Notifier interface {
	NotifyContact(ctx context.Context, n ContactNotification) (Result, error)
}

// New returns a ResendNotifier when cfg carries an API key and recipient,
// otherwise a NoopNotifier.
func New(cfg config.NotifyConfig) Notifier {
	if !cfg.Enabled() {
		return NoopNotifier{}
	}
	return &ResendNotifier{
		APIKey:     cfg.ResendAPIKey,
		To:         cfg.ToEmail,
		From:       cfg.FromEmail,
		Endpoint:   cfg.Endpoint,
		HTTPClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
}

// NoopNotifier never sends anything.
type NoopNotifier struct{}

// NotifyContact reports that no delivery was attempted.
func (NoopNotifier) NotifyContact(context.Context, ContactNotification) (Result, error) {
	return Result{}, nil
}

// ResendNotifier emails the owner through the Resend API.
type ResendNotifier struct {
	APIKey     string
	To         string
	From       string
	Endpoint   string
	HTTPClient *http.Client
}

// Email is the Resend send-email payload.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// NotifyContact posts the message to Resend with the sender as reply-to.
func (r *ResendNotifier) NotifyContact(ctx context.Context, n ContactNotification) (Result, error) {
	result := Result{Attempted: true}
	if r == nil || strings.TrimSpace(r.APIKey) == "" {
		return result, fmt.Errorf("resend notifier not configured")
	}

	body, err := json.Marshal(BuildEmail(r.from(), r.To, n))
	if err != nil {
		return result, fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint(), bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(0)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return result, fmt.Errorf("resend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	result.Delivered = true
	return result, nil
}

// BuildEmail shapes the notification. A blank subject falls back to
// "Portfolio message from <name>".
func BuildEmail(from, to string, n ContactNotification) Email {
	subject := ""
	if n.Subject != nil {
		subject = strings.TrimSpace(*n.Subject)
	}
	if subject == "" {
		subject = "Portfolio message from " + n.Name
	}
	return Email{
		From:    from,
		To:      []string{to},
		ReplyTo: n.Email,
		Subject: subject,
		Text:    fmt.Sprintf("%s\n\nFrom: %s <%s>", n.Message, n.Name, n.Email),
	}
}

func (r *ResendNotifier) endpoint() string {
	if endpoint := strings.TrimSpace(r.Endpoint); endpoint != "" {
		return endpoint
	}
	return DefaultResendEndpoint
}

func (r *ResendNotifier) from() string {
	if from := strings.TrimSpace(r.From); from != "" {
		return from
	}
	return DefaultFromEmail
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}
