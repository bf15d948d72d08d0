package store

import (
	"context"
	"time"
)

// LLMEvent captures a single LLM API call for the usage log.
type LLMEvent struct {
	ID           int
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	Streamed     bool
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	RequestBody  string
	ResponseBody string
	ErrorMessage string
}

// TokenTotals aggregates token usage across logged LLM events.
type TokenTotals struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the LLM usage log.
type EventRepo interface {
	// AppendLLMEvent records an LLM API call event.
	AppendLLMEvent(ctx context.Context, ev LLMEvent) error

	// RecentLLMEvents returns the most recent events, newest first.
	RecentLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error)

	// GetLLMEvent returns one event by id, or nil when absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// Totals aggregates token usage over all logged events.
	Totals(ctx context.Context) (TokenTotals, error)
}

// SessionSnapshot is an archived copy of a saved quiz session.
type SessionSnapshot struct {
	ID        int
	SessionID string
	Timestamp time.Time
	Data      []byte
}

// SnapshotRepo archives session snapshots alongside the file-based save.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *SessionSnapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*SessionSnapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
