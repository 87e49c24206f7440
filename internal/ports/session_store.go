package ports

import (
	"context"

	"github.com/google/uuid"

	"colab/internal/domain"
)

// FinishRecord carries the terminal fields stamped onto a session
type FinishRecord struct {
	Abnormal     bool
	Patch        string
	PostCmdError string
}

// SessionReader reads session records
type SessionReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Session, error)
	ListRunning(ctx context.Context) ([]domain.Session, error)
}

// SessionWriter appends and finalizes session records
type SessionWriter interface {
	// Append persists a new session record. Records are never deleted.
	Append(ctx context.Context, session domain.Session) error

	// MarkFinished stamps a running session finished. A record that is
	// already finished is immutable and the call fails.
	MarkFinished(ctx context.Context, id uuid.UUID, record FinishRecord) error
}

// SessionStore is the composite interface
type SessionStore interface {
	SessionReader
	SessionWriter
	Close() error
}
