package services

import (
	"context"

	"colab/internal/domain"
	"colab/internal/logging"
	"colab/internal/ports"
)

// RepositoryService drives the single working tree through
// clone/fetch/pull/checkout transitions. Every mutation goes through
// the session manager's single-writer gate, which rejects it with
// ErrBusy while a session holds the tree.
type RepositoryService struct {
	cmdRunner ports.CommandRunner
	git       ports.GitRepository
	manager   *SessionManager
	repoDir   string
	settings  *SettingsService
}

// NewRepositoryService creates a new RepositoryService
func NewRepositoryService(
	git ports.GitRepository,
	manager *SessionManager,
	cmdRunner ports.CommandRunner,
	settings *SettingsService,
	repoDir string,
) *RepositoryService {
	return &RepositoryService{
		cmdRunner: cmdRunner,
		git:       git,
		manager:   manager,
		repoDir:   repoDir,
		settings:  settings,
	}
}

// Clone clones the configured repository. Valid only once: a tree that
// already exists rejects further clones.
func (s *RepositoryService) Clone(ctx context.Context) error {
	return s.manager.GateMutation(func() error {
		settings, err := s.settings.Snapshot()
		if err != nil {
			return err
		}
		return s.git.Clone(ctx, settings.Repo.URL, settings.Repo.Branch)
	})
}

// Fetch updates remote tracking refs without touching the tree
func (s *RepositoryService) Fetch(ctx context.Context) error {
	return s.manager.GateMutation(func() error {
		return s.git.Fetch(ctx)
	})
}

// Pull fast-forwards the tree, then runs the configured pull hook.
// Hook failure is logged, not surfaced: the pull itself succeeded.
func (s *RepositoryService) Pull(ctx context.Context) error {
	return s.manager.GateMutation(func() error {
		if err := s.git.Pull(ctx); err != nil {
			return err
		}

		settings, err := s.settings.Snapshot()
		if err != nil {
			return err
		}
		if _, err := s.cmdRunner.Run(ctx, settings.PullCmd, s.repoDir); err != nil {
			logging.Logger.Error("Pull hook failed", "error", err)
		}
		return nil
	})
}

// Checkout switches the tree to branch
func (s *RepositoryService) Checkout(ctx context.Context, branch string) error {
	return s.manager.GateMutation(func() error {
		return s.git.Checkout(ctx, branch)
	})
}

// State returns a read snapshot of the working tree. Reads never block
// on the single-writer gate.
func (s *RepositoryService) State(ctx context.Context) (*domain.RepositoryState, error) {
	settings, err := s.settings.Snapshot()
	if err != nil {
		return nil, err
	}

	state := &domain.RepositoryState{
		Branch: settings.Repo.Branch,
		Cloned: s.git.IsCloned(),
		URL:    settings.Repo.URL,
	}
	if !state.Cloned {
		return state, nil
	}

	if head, err := s.git.HeadRevision(ctx); err == nil {
		state.HeadRevision = head
	}
	if branch, err := s.git.CurrentBranch(ctx); err == nil {
		state.Branch = branch
	}
	if branches, err := s.git.ListBranches(ctx); err == nil {
		state.Branches = branches
	}
	return state, nil
}

// TreeSummary reports working tree statistics for listings
func (s *RepositoryService) TreeSummary(ctx context.Context) (*domain.TreeSummary, error) {
	return s.git.TreeSummary(ctx)
}
