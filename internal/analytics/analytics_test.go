package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/core"
	errwrap "github.com/folio/folio/internal/errors"
)

func strPtr(s string) *string { return &s }

func TestPagePath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"   ":                                "/",
		"/projects?tab=web#top":              "/projects",
		"/?utm=x":                            "/",
		"https://example.com/blog/post?id=1": "/blog/post",
		"https://example.com":                "/",
		"not a url":                          "/",
		"mailto:someone@example.com":         "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, PagePath(in), in)
	}
	assert.Len(t, PagePath("/"+strings.Repeat("a", 600)), maxPagePath)
}

func TestReferrer(t *testing.T) {
	ref := Referrer("https://News.Example.com/item?id=42#c")
	require.NotNil(t, ref)
	assert.Equal(t, "https://news.example.com/item", *ref)

	ref = Referrer("https://example.com")
	require.NotNil(t, ref)
	assert.Equal(t, "https://example.com/", *ref)

	assert.Nil(t, Referrer(""))
	assert.Nil(t, Referrer("example.com/path"))
}

func TestCountryAndSession(t *testing.T) {
	code := CountryCode(" de ")
	require.NotNil(t, code)
	assert.Equal(t, "DE", *code)
	assert.Nil(t, CountryCode("DEU"))
	assert.Nil(t, CountryCode("1A"))

	session := SessionID("  sess_1234-ab  ")
	require.NotNil(t, session)
	assert.Equal(t, "sess_1234-ab", *session)
	assert.Nil(t, SessionID("abc"))
	assert.Nil(t, SessionID("has space here"))
}

func TestDeviceType(t *testing.T) {
	assert.Equal(t, core.DeviceTablet, DeviceType("tablet", "Mobile Safari"))
	assert.Equal(t, core.DeviceMobile, DeviceType("", "Mozilla/5.0 (iPhone) Mobile/15E148"))
	assert.Equal(t, core.DeviceTablet, DeviceType("watch", "Mozilla/5.0 (iPad; CPU OS 17_0)"))
	assert.Equal(t, core.DeviceDesktop, DeviceType("", "Mozilla/5.0 (X11; Linux x86_64)"))
}

func TestSanitizeMetadata(t *testing.T) {
	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(`{
		"project": "  threat-lab  ",
		"userEmail": "a@b.co",
		"Phone": "555",
		"ipAddress": "1.2.3.4",
		"note": "reach me at ada@example.com",
		"blank": "   ",
		"score": 4.5,
		"pinned": true,
		"missing": null,
		"nested": {"a": 1},
		"list": [1, 2]
	}`), &meta))

	out := SanitizeMetadata(meta)
	assert.Equal(t, map[string]core.MetadataValue{
		"project": "threat-lab",
		"score":   4.5,
		"pinned":  true,
		"missing": nil,
	}, out)
}

func TestSanitizeMetadataKeepsFirstTwelveKeys(t *testing.T) {
	var b strings.Builder
	b.WriteString("{")
	for i := 0; i < 20; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"k%02d": %d`, i, i)
	}
	b.WriteString("}")

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(b.String()), &meta))
	out := SanitizeMetadata(meta)

	assert.Len(t, out, maxMetadataKeys)
	assert.Contains(t, out, "k00")
	assert.Contains(t, out, "k11")
	assert.NotContains(t, out, "k12")
}

func TestMetadataRejectsNonObject(t *testing.T) {
	var meta Metadata
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &meta))
	require.NoError(t, json.Unmarshal([]byte(`null`), &meta))
	assert.Empty(t, meta)
}

func TestInputValidate(t *testing.T) {
	in := Input{EventType: core.EventPageView}
	require.NoError(t, in.Validate())

	in = Input{
		EventType:   "click",
		PagePath:    strPtr(""),
		CountryCode: strPtr("DEU"),
		DeviceType:  strPtr("watch"),
		SessionID:   strPtr("ab"),
	}
	err := in.Validate()
	var env *gferrors.ErrorEnvelope
	require.ErrorAs(t, err, &env)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	fields, ok := env.Details["fieldErrors"].(errwrap.FieldErrors)
	require.True(t, ok)
	for _, field := range []string{"event_type", "page_path", "country_code", "device_type", "session_id"} {
		assert.Contains(t, fields, field)
	}
}

func TestSanitize(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"event_type": "project_view",
		"page_path": "/projects/threat-lab?ref=home",
		"referrer": "https://google.com/search?q=me",
		"country_code": "us",
		"session_id": "session-1234",
		"metadata": {"slug": "threat-lab", "email": "x@y.io"}
	}`), &in))
	require.NoError(t, in.Validate())

	event := Sanitize(in, "Mozilla/5.0 (Android 14; Mobile)")
	assert.Equal(t, core.EventProjectView, event.EventType)
	assert.Equal(t, "/projects/threat-lab", event.PagePath)
	assert.Equal(t, "https://google.com/search", *event.Referrer)
	assert.Equal(t, "US", *event.CountryCode)
	assert.Equal(t, "session-1234", *event.SessionID)
	assert.Equal(t, core.DeviceMobile, event.DeviceType)
	assert.Equal(t, map[string]core.MetadataValue{"slug": "threat-lab"}, event.Metadata)
}

func TestSessionFrom(t *testing.T) {
	assert.Equal(t, "body-session", SessionFrom(Input{SessionID: strPtr("body-session")}, "header-session"))
	assert.Equal(t, "header-session", SessionFrom(Input{}, " header-session "))
}

func TestSummarize(t *testing.T) {
	day1 := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 2, 1, 0, 0, 0, time.UTC)
	s1, s2 := "sess-aaaa", "sess-bbbb"

	events := []core.AnalyticsEvent{
		{EventType: core.EventPageView, PagePath: "/", SessionID: &s1, CreatedAt: day2},
		{EventType: core.EventPageView, PagePath: "/blog", SessionID: &s1, CreatedAt: day1},
		{EventType: core.EventProjectView, PagePath: "/projects", SessionID: &s2, CreatedAt: day2},
		{EventType: core.EventPageView, PagePath: "/", CreatedAt: day2},
		{EventType: core.EventCVDownload, PagePath: "/cv", CreatedAt: day1},
	}

	summary := Summarize(events, 7)
	assert.Equal(t, 7, summary.Days)
	assert.Equal(t, 5, summary.Totals.Events)
	assert.Equal(t, 2, summary.Totals.UniqueSessions)
	assert.Equal(t, map[string]int{"page_view": 3, "project_view": 1, "cv_download": 1}, summary.Totals.ByType)

	assert.Equal(t, []Count{
		{Key: "page_view", Count: 3},
		{Key: "project_view", Count: 1},
		{Key: "cv_download", Count: 1},
	}, summary.Series.ByType)
	assert.Equal(t, Count{Key: "/", Count: 2}, summary.Series.TopPages[0])
	assert.Equal(t, []Count{
		{Key: "2026-05-01", Count: 2},
		{Key: "2026-05-02", Count: 3},
	}, summary.Series.ByDay)
}

func TestSummarizeCapsTopPages(t *testing.T) {
	events := make([]core.AnalyticsEvent, 0, 15)
	for i := 0; i < 15; i++ {
		events = append(events, core.AnalyticsEvent{EventType: core.EventPageView, PagePath: fmt.Sprintf("/p%d", i)})
	}
	summary := Summarize(events, DefaultDays)
	assert.Len(t, summary.Series.TopPages, 10)
	assert.Equal(t, 0, summary.Totals.UniqueSessions)
}

func TestSince(t *testing.T) {
	now := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Since(now, 30))
}
