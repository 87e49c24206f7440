package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	wishlogging "github.com/charmbracelet/wish/logging"

	"colab/internal/logging"
	"colab/internal/services"
)

// LogStreamServer exposes the running session's live tool output over
// SSH. Any number of viewers may attach; a viewer disconnecting never
// affects the tool process or the other viewers.
type LogStreamServer struct {
	addr       string
	manager    *services.SessionManager
	wishServer *ssh.Server
}

// NewLogStreamServer creates the SSH log-stream endpoint. Keys:
// host key under <data>/ssh, viewers authorized via
// <data>/authorized_keys.
func NewLogStreamServer(addr, dataDir string, manager *services.SessionManager) (*LogStreamServer, error) {
	s := &LogStreamServer{
		addr:    addr,
		manager: manager,
	}

	sshDir := filepath.Join(dataDir, "ssh")
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create SSH directory: %w", err)
	}

	authorizedKeysPath := filepath.Join(dataDir, "authorized_keys")

	wishServer, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(filepath.Join(sshDir, "id_ed25519")),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := getKeyFingerprint(key)
			authorized := isKeyAuthorized(key, authorizedKeysPath)

			if authorized {
				logging.Logger.Info("SSH viewer authenticated",
					"user", ctx.User(),
					"fingerprint", fingerprint,
					"key_type", key.Type())
			} else {
				logging.Logger.Warn("Unauthorized SSH key",
					"user", ctx.User(),
					"fingerprint", fingerprint,
					"key_type", key.Type())
			}
			return authorized
		}),
		wish.WithMiddleware(
			s.streamMiddleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.wishServer = wishServer
	return s, nil
}

// streamMiddleware attaches the viewer to the running session's log
func (s *LogStreamServer) streamMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			current := s.manager.CurrentSession()
			if current == nil {
				wish.Println(sess, "no session is running")
				next(sess)
				return
			}

			reader, err := s.manager.AttachLog(current.ID)
			if err != nil {
				wish.Println(sess, err.Error())
				next(sess)
				return
			}
			defer reader.Close()

			wish.Printf(sess, "streaming log for session %s (disconnect to detach)\r\n", current.ID)

			// Client disconnect tears down the attachment
			go func() {
				<-sess.Context().Done()
				reader.Close()
			}()

			if _, err := io.Copy(sess, reader); err != nil && err != io.EOF {
				logging.Logger.Debug("SSH log stream ended", "error", err)
			}

			next(sess)
		}
	}
}

// ListenAndServe starts the SSH server and blocks until Shutdown
func (s *LogStreamServer) ListenAndServe() error {
	logging.Logger.Info("SSH log-stream server listening", "address", s.addr)
	return s.wishServer.ListenAndServe()
}

// Shutdown stops the SSH server gracefully
func (s *LogStreamServer) Shutdown(ctx context.Context) error {
	return s.wishServer.Shutdown(ctx)
}
