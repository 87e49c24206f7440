package cmd

import (
	adaptergit "colab/internal/adapters/git"
	adapterjar "colab/internal/adapters/jar"
	adapterprocess "colab/internal/adapters/process"
	adaptershell "colab/internal/adapters/shell"
	adapterstorage "colab/internal/adapters/storage"
	"colab/internal/config"
	"colab/internal/ports"
	"colab/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	Manager    *services.SessionManager
	Paths      config.Paths
	Repository *services.RepositoryService
	Settings   *services.SettingsService

	// Internal - for cleanup only
	store ports.SessionStore
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(dataDir string) (*Container, error) {
	paths := config.NewPaths(dataDir)

	store, err := adapterstorage.NewSQLiteRepository(paths.DBFile())
	if err != nil {
		return nil, err
	}

	gitRepo := adaptergit.NewCLIRepository(paths.RepoDir())
	inspector := adapterjar.NewSHA256Inspector()
	runner := adaptershell.NewRunner()
	settings := services.NewSettingsService(paths.SettingsFile())
	supervisor := adapterprocess.NewPTYSupervisor()

	manager, err := services.NewSessionManager(store, gitRepo, supervisor, inspector, runner, settings, paths)
	if err != nil {
		store.Close()
		return nil, err
	}

	repository := services.NewRepositoryService(gitRepo, manager, runner, settings, paths.RepoDir())

	return &Container{
		Manager:    manager,
		Paths:      paths,
		Repository: repository,
		Settings:   settings,
		store:      store,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
