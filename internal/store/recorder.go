// Package store persists tool invocation records.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invocation is one executed tool call. Credentials never reach the store;
// the caller's email is kept only as a hash.
type Invocation struct {
	ID         uuid.UUID `json:"id"`
	Tool       string    `json:"tool"`
	EmailHash  string    `json:"email_hash"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewInvocation fills in the ID and timestamp
func NewInvocation(tool, emailHash string) Invocation {
	return Invocation{
		ID:        uuid.New(),
		Tool:      tool,
		EmailHash: emailHash,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder stores invocations
type Recorder interface {
	Record(ctx context.Context, inv Invocation) error
	Recent(ctx context.Context, limit int) ([]Invocation, error)
	Ping(ctx context.Context) error
	Close()
}

// NopRecorder discards everything. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Invocation) error { return nil }

func (NopRecorder) Recent(context.Context, int) ([]Invocation, error) { return nil, nil }

func (NopRecorder) Ping(context.Context) error { return nil }

func (NopRecorder) Close() {}
