package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a mapping session
type SessionState string

const (
	StateRunning  SessionState = "running"
	StateFinished SessionState = "finished"
)

// JarInfo identifies the exact jar binary a session ran against,
// independent of filename or mtime.
type JarInfo struct {
	Name   string
	SHA256 string
}

// Session represents one bounded unit of collaborative mapping work
// against a fixed starting revision and jar (domain entity).
type Session struct {
	Abnormal     bool // process died without an operator-issued finish
	CreatedAt    time.Time
	FinishedAt   *time.Time
	ID           uuid.UUID
	JarInfo      JarInfo
	Patch        string // set once finished
	PostCmdError string // best-effort post-session command failure, if any
	Revision     string // commit id the session was started against
	State        SessionState
}

// IsRunning reports whether the session is still active.
func (s *Session) IsRunning() bool {
	return s.State == StateRunning
}

// RepositoryState is a read snapshot of the single working tree.
type RepositoryState struct {
	Branch       string
	Branches     []string
	Cloned       bool
	HeadRevision string
	URL          string
}
