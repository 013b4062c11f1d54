package core

import "time"

// RateLimitState is the persisted budget window for an upstream endpoint.
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}
