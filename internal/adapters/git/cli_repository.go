package git

import (
	"context"
	"fmt"
	"strings"

	"colab/internal/domain"
	"colab/internal/logging"
	"colab/internal/ports"
)

// CLIRepository implements ports.GitRepository against the single
// working tree using local git commands. It is pure mechanism: the
// busy/exclusivity gating lives in the session manager.
type CLIRepository struct {
	repoDir string
}

// Verify interface compliance at compile time
var _ ports.GitRepository = (*CLIRepository)(nil)

// NewCLIRepository creates a CLIRepository rooted at repoDir
func NewCLIRepository(repoDir string) *CLIRepository {
	return &CLIRepository{repoDir: repoDir}
}

// IsCloned implements RepoInspector.IsCloned
func (r *CLIRepository) IsCloned() bool {
	return isCloned(r.repoDir)
}

// Clone implements RepoSyncer.Clone
func (r *CLIRepository) Clone(ctx context.Context, url, branch string) error {
	if r.IsCloned() {
		return domain.ErrAlreadyCloned
	}
	return clone(ctx, url, r.repoDir, branch)
}

// Fetch implements RepoSyncer.Fetch
func (r *CLIRepository) Fetch(ctx context.Context) error {
	if !r.IsCloned() {
		return domain.ErrNotCloned
	}
	_, err := run(ctx, r.repoDir, "fetch", "origin")
	return err
}

// Pull implements RepoSyncer.Pull. Fast-forward only: a diverged
// branch or dirty tree surfaces as ErrRepositoryConflict with the
// tree left untouched.
func (r *CLIRepository) Pull(ctx context.Context) error {
	if !r.IsCloned() {
		return domain.ErrNotCloned
	}

	output, err := run(ctx, r.repoDir, "pull", "--ff-only")
	if err != nil {
		if isConflict(output) {
			return fmt.Errorf("%w: %s", domain.ErrRepositoryConflict, strings.TrimSpace(output))
		}
		return err
	}
	return nil
}

// Checkout implements RepoSyncer.Checkout. An unknown branch is
// fetched once from origin before giving up, matching how a freshly
// pushed branch becomes visible.
func (r *CLIRepository) Checkout(ctx context.Context, branch string) error {
	if !r.IsCloned() {
		return domain.ErrNotCloned
	}

	output, err := run(ctx, r.repoDir, "checkout", branch)
	if err == nil {
		return nil
	}
	if isConflict(output) {
		return fmt.Errorf("%w: %s", domain.ErrRepositoryConflict, strings.TrimSpace(output))
	}
	if !isUnknownBranch(output) {
		return err
	}

	logging.Logger.Debug("Branch not found locally, fetching from origin", "branch", branch)
	if _, err := run(ctx, r.repoDir, "fetch", "origin"); err != nil {
		return err
	}

	output, err = run(ctx, r.repoDir, "checkout", branch)
	if err != nil {
		if isConflict(output) {
			return fmt.Errorf("%w: %s", domain.ErrRepositoryConflict, strings.TrimSpace(output))
		}
		if isUnknownBranch(output) {
			return fmt.Errorf("%w: %s", domain.ErrBranchNotFound, branch)
		}
		return err
	}
	return nil
}

// HeadRevision implements RepoInspector.HeadRevision
func (r *CLIRepository) HeadRevision(ctx context.Context) (string, error) {
	if !r.IsCloned() {
		return "", domain.ErrNotCloned
	}
	output, err := run(ctx, r.repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranch implements RepoInspector.CurrentBranch
func (r *CLIRepository) CurrentBranch(ctx context.Context) (string, error) {
	if !r.IsCloned() {
		return "", domain.ErrNotCloned
	}
	output, err := run(ctx, r.repoDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// ListBranches implements RepoInspector.ListBranches
func (r *CLIRepository) ListBranches(ctx context.Context) ([]string, error) {
	if !r.IsCloned() {
		return nil, domain.ErrNotCloned
	}

	output, err := run(ctx, r.repoDir, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// DiffSince implements TreeDiffer.DiffSince. The diff covers
// tracked-file changes between revision and the current tree contents,
// uncommitted working tree changes included.
func (r *CLIRepository) DiffSince(ctx context.Context, revision string) (string, error) {
	if !r.IsCloned() {
		return "", domain.ErrNotCloned
	}
	return run(ctx, r.repoDir, "diff", revision, "--")
}

// Reset implements TreeDiffer.Reset, discarding all tracked changes
// and moving HEAD back to revision.
func (r *CLIRepository) Reset(ctx context.Context, revision string) error {
	if !r.IsCloned() {
		return domain.ErrNotCloned
	}
	_, err := run(ctx, r.repoDir, "reset", "--hard", revision)
	return err
}
