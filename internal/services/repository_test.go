package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colab/internal/config"
	"colab/internal/domain"
)

func newRepositoryEnv(t *testing.T) (*RepositoryService, *managerEnv) {
	t.Helper()

	env := newManagerEnv(t)
	service := NewRepositoryService(env.git, env.manager, env.runner, env.settings, env.paths.RepoDir())
	return service, env
}

func TestRepositoryClone(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	env.git.cloned = false
	require.NoError(t, service.Clone(ctx))
	assert.True(t, env.git.IsCloned())

	// The tree exists now, a second clone is rejected
	assert.ErrorIs(t, service.Clone(ctx), domain.ErrAlreadyCloned)
}

func TestRepositoryMutations_BusyDuringSession(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	_, err := env.manager.StartSession(ctx, "")
	require.NoError(t, err)

	assert.ErrorIs(t, service.Clone(ctx), domain.ErrBusy)
	assert.ErrorIs(t, service.Fetch(ctx), domain.ErrBusy)
	assert.ErrorIs(t, service.Pull(ctx), domain.ErrBusy)
	assert.ErrorIs(t, service.Checkout(ctx, "master"), domain.ErrBusy)
}

func TestRepositoryPull_RunsHook(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	settings, err := env.settings.Snapshot()
	require.NoError(t, err)
	settings.PullCmd = "./gradlew build"
	require.NoError(t, env.settings.Update(settings))

	require.NoError(t, service.Pull(ctx))
	assert.Contains(t, env.runner.ranCommands(), "./gradlew build")
}

func TestRepositoryPull_HookFailureIsNotSurfaced(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	settings, err := env.settings.Snapshot()
	require.NoError(t, err)
	settings.PullCmd = "./gradlew build"
	require.NoError(t, env.settings.Update(settings))

	env.runner.failOn = "./gradlew build"
	env.runner.failErr = errors.New("exit status 1")

	assert.NoError(t, service.Pull(ctx), "the pull itself succeeded")
}

func TestRepositoryPull_ConflictSurfaces(t *testing.T) {
	service, env := newRepositoryEnv(t)

	env.git.pullErr = fmt.Errorf("%w: local changes", domain.ErrRepositoryConflict)

	err := service.Pull(context.Background())
	assert.ErrorIs(t, err, domain.ErrRepositoryConflict)
}

func TestRepositoryCheckout_UnknownBranch(t *testing.T) {
	service, _ := newRepositoryEnv(t)

	err := service.Checkout(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestRepositoryState(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	require.NoError(t, env.settings.UpdateRepo(config.RepoSettings{
		Branch: "master",
		URL:    "https://example.com/mappings.git",
	}))

	state, err := service.State(ctx)
	require.NoError(t, err)

	assert.True(t, state.Cloned)
	assert.Equal(t, "https://example.com/mappings.git", state.URL)
	assert.Equal(t, "master", state.Branch)
	assert.Equal(t, "1a2b3c4d5e6f", state.HeadRevision)
	assert.Equal(t, []string{"master"}, state.Branches)
}

func TestRepositoryState_NotCloned(t *testing.T) {
	service, env := newRepositoryEnv(t)
	env.git.cloned = false

	state, err := service.State(context.Background())
	require.NoError(t, err)

	assert.False(t, state.Cloned)
	assert.Empty(t, state.HeadRevision)
	assert.Empty(t, state.Branches)
}

func TestRepositoryState_ReadsDoNotNeedGate(t *testing.T) {
	service, env := newRepositoryEnv(t)
	ctx := context.Background()

	_, err := env.manager.StartSession(ctx, "")
	require.NoError(t, err)

	// State and summary stay readable while a session holds the tree
	state, err := service.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.Cloned)

	summary, err := service.TreeSummary(ctx)
	require.NoError(t, err)
	assert.NotNil(t, summary)
}
