package analytics

import (
	"sort"
	"time"

	"github.com/folio/folio/internal/core"
)

const (
	DefaultDays = 30
	MaxDays     = 365
	topPages    = 10
)

// Count is one aggregated key.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Series holds the ordered aggregates of a Summary.
type Series struct {
	ByDay    []Count `json:"byDay"`
	ByType   []Count `json:"byType"`
	TopPages []Count `json:"topPages"`
}

// Totals holds the headline numbers of a Summary.
type Totals struct {
	Events         int            `json:"events"`
	UniqueSessions int            `json:"uniqueSessions"`
	ByType         map[string]int `json:"byType"`
}

// Summary is the owner dashboard view of recent events.
type Summary struct {
	Days   int    `json:"days"`
	Series Series `json:"series"`
	Totals Totals `json:"totals"`
}

// Since returns the start of a window of days ending at now.
func Since(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// Summarize aggregates events. Counts are sorted descending with ties in
// first-seen order; byDay is keyed by UTC date in ascending order.
func Summarize(events []core.AnalyticsEvent, days int) Summary {
	types := newCounter()
	pages := newCounter()
	dates := newCounter()
	sessions := map[string]struct{}{}

	for _, event := range events {
		types.add(string(event.EventType))
		pages.add(event.PagePath)
		dates.add(event.CreatedAt.UTC().Format("2006-01-02"))
		if event.SessionID != nil && *event.SessionID != "" {
			sessions[*event.SessionID] = struct{}{}
		}
	}

	byType := types.sorted()
	byPage := pages.sorted()
	if len(byPage) > topPages {
		byPage = byPage[:topPages]
	}
	byDay := dates.sorted()
	sort.SliceStable(byDay, func(i, j int) bool { return byDay[i].Key < byDay[j].Key })

	totalsByType := make(map[string]int, len(byType))
	for _, c := range byType {
		totalsByType[c.Key] = c.Count
	}

	return Summary{
		Days: days,
		Series: Series{
			ByDay:    byDay,
			ByType:   byType,
			TopPages: byPage,
		},
		Totals: Totals{
			Events:         len(events),
			UniqueSessions: len(sessions),
			ByType:         totalsByType,
		},
	}
}

type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) sorted() []Count {
	out := make([]Count, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, Count{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
