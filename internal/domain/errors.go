package domain

import "errors"

var (
	// ErrBusy rejects repository or lifecycle mutations while a session
	// or transition holds the working tree.
	ErrBusy = errors.New("a session is in progress, working tree is busy")

	ErrAlreadyCloned      = errors.New("a repository already exists, can't clone")
	ErrBranchNotFound     = errors.New("branch not found")
	ErrNoSessionRunning   = errors.New("no session is running")
	ErrNotCloned          = errors.New("repository has not been cloned yet")
	ErrRepositoryConflict = errors.New("repository operation conflicts with local changes")
	ErrSessionFinished    = errors.New("session is already finished")
	ErrSessionNotFound    = errors.New("session not found")
)
