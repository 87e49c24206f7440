package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"golang.org/x/sync/errgroup"

	"colab/internal/logging"
	"colab/internal/server"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd runs the collaboration server
type ServeCmd struct {
	AdminToken string `help:"Bearer token required for admin operations" env:"COLAB_ADMIN_TOKEN"`
	DataDir    string `help:"Directory holding settings, the working tree and session records" default:"data" env:"COLAB_DATA_DIR"`
	HTTPAddr   string `help:"HTTP listen address" default:":8000" env:"COLAB_HTTP_ADDR"`
	SSHAddr    string `help:"SSH log-stream listen address (empty disables)" default:":2222" env:"COLAB_SSH_ADDR"`
}

// Run starts the HTTP API and the SSH log-stream endpoint, blocking
// until a shutdown signal arrives.
func (s *ServeCmd) Run(cli *CLI) error {
	container, err := NewContainer(s.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	cli.Container = container
	defer cli.Close()

	router := server.NewRouter(container.Manager, container.Repository, container.Settings, s.AdminToken)
	httpServer := &http.Server{
		Addr:    s.HTTPAddr,
		Handler: router,
	}

	var sshServer *server.LogStreamServer
	if s.SSHAddr != "" {
		sshServer, err = server.NewLogStreamServer(s.SSHAddr, s.DataDir, container.Manager)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Logger.Info("HTTP server listening", "address", s.HTTPAddr)
		fmt.Printf("colab listening on %s\n", s.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if sshServer != nil {
		g.Go(func() error {
			if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				logging.Logger.Error("SSH server error", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logging.Logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if sshServer != nil {
			if err := sshServer.Shutdown(shutdownCtx); err != nil {
				logging.Logger.Error("SSH shutdown failed", "error", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logging.Logger.Info("Server stopped")
	return nil
}
