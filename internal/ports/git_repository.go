package ports

import (
	"context"

	"colab/internal/domain"
)

// RepoInspector queries working tree information
type RepoInspector interface {
	HeadRevision(ctx context.Context) (string, error)
	IsCloned() bool
	ListBranches(ctx context.Context) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// RepoSyncer drives clone/fetch/pull/checkout transitions
type RepoSyncer interface {
	Checkout(ctx context.Context, branch string) error
	Clone(ctx context.Context, url, branch string) error
	Fetch(ctx context.Context) error
	Pull(ctx context.Context) error
}

// TreeDiffer produces patches from accumulated working tree changes
type TreeDiffer interface {
	// DiffSince returns tracked-file changes between the given revision
	// and the current tree contents, uncommitted changes included.
	DiffSince(ctx context.Context, revision string) (string, error)

	// Reset discards all working tree changes and moves HEAD back to
	// the given revision.
	Reset(ctx context.Context, revision string) error
}

// TreeSummaryProvider reports working tree stats for listings
type TreeSummaryProvider interface {
	TreeSummary(ctx context.Context) (*domain.TreeSummary, error)
}

// GitRepository is the composite interface
type GitRepository interface {
	RepoInspector
	RepoSyncer
	TreeDiffer
	TreeSummaryProvider
}
