package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"colab/internal/config"
	"colab/internal/domain"
	"colab/internal/logging"
	"colab/internal/ports"
)

// DefaultStopTimeout bounds the graceful-stop wait before the tool
// process is force-killed.
const DefaultStopTimeout = 10 * time.Second

// SessionManager owns the authoritative session lifecycle: at most one
// session runs against the working tree at a time, and every
// transition (start, finish, abnormal finish, repository mutation)
// passes through its single-writer gate. The gate is held only across
// transition edges, never for the lifetime of a running session.
type SessionManager struct {
	cmdRunner   ports.CommandRunner
	git         ports.GitRepository
	inspector   ports.JarInspector
	paths       config.Paths
	settings    *SettingsService
	stopTimeout time.Duration
	store       ports.SessionStore
	supervisor  ports.Supervisor

	// gate serializes lifecycle transitions and repository mutations
	gate sync.Mutex

	// mu guards current only, so snapshot reads never block on the gate
	mu      sync.Mutex
	current *activeSession
}

// activeSession couples the RUNNING session record with its supervised
// process. The two remain independent state machines joined by the
// process exit notification.
type activeSession struct {
	cancelWorkers context.CancelFunc
	process       ports.ToolProcess
	session       domain.Session
}

// NewSessionManager wires the manager and sweeps the store: any
// session left RUNNING by a previous server process has no live tool
// attached and is marked finished-abnormal.
func NewSessionManager(
	store ports.SessionStore,
	git ports.GitRepository,
	supervisor ports.Supervisor,
	inspector ports.JarInspector,
	cmdRunner ports.CommandRunner,
	settings *SettingsService,
	paths config.Paths,
) (*SessionManager, error) {
	m := &SessionManager{
		cmdRunner:   cmdRunner,
		git:         git,
		inspector:   inspector,
		paths:       paths,
		settings:    settings,
		stopTimeout: DefaultStopTimeout,
		store:       store,
		supervisor:  supervisor,
	}

	if err := m.recoverStaleSessions(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// recoverStaleSessions finishes RUNNING records orphaned by a server
// restart. The tool process is gone, so whatever the tree holds now is
// the best available patch.
func (m *SessionManager) recoverStaleSessions(ctx context.Context) error {
	running, err := m.store.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan for stale sessions: %w", err)
	}

	for _, session := range running {
		logging.Logger.Warn("Recovering session left running by a previous server process",
			"session_id", session.ID)

		patch := ""
		if m.git.IsCloned() {
			if diff, err := m.git.DiffSince(ctx, session.Revision); err == nil {
				patch = diff
			} else {
				logging.Logger.Error("Failed to capture patch for stale session",
					"session_id", session.ID, "error", err)
			}
		}

		if err := m.store.MarkFinished(ctx, session.ID, ports.FinishRecord{
			Abnormal: true,
			Patch:    patch,
		}); err != nil {
			return fmt.Errorf("failed to finish stale session %s: %w", session.ID, err)
		}
	}
	return nil
}

// StartSession starts a new mapping session. Preconditions: the
// repository is cloned and no session is running. Any failure before
// the session record is persisted leaves the manager idle with no
// record written.
func (m *SessionManager) StartSession(ctx context.Context, toolPassword string) (*domain.Session, error) {
	m.gate.Lock()
	defer m.gate.Unlock()

	if m.snapshot() != nil {
		return nil, domain.ErrBusy
	}
	if !m.git.IsCloned() {
		return nil, domain.ErrNotCloned
	}

	settings, err := m.settings.Snapshot()
	if err != nil {
		return nil, err
	}

	// Pre-session command runs to completion first; its failure aborts
	// with no session created.
	if _, err := m.cmdRunner.Run(ctx, settings.PreSessionCmd, m.paths.RepoDir()); err != nil {
		return nil, fmt.Errorf("pre-session command failed: %w", err)
	}

	revision, err := m.git.HeadRevision(ctx)
	if err != nil {
		return nil, err
	}

	jarPath := filepath.Join(m.paths.RepoDir(), settings.JarFile)
	jarInfo, err := m.inspector.Identify(jarPath)
	if err != nil {
		return nil, fmt.Errorf("failed to identify jar: %w", err)
	}

	session := domain.Session{
		CreatedAt: time.Now().UTC(),
		ID:        uuid.New(),
		JarInfo:   jarInfo,
		Revision:  revision,
		State:     domain.StateRunning,
	}

	if err := os.MkdirAll(m.paths.SessionDir(session.ID.String()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	process, err := m.supervisor.Launch(ports.LaunchSpec{
		Args:       toolArgs(settings, toolPassword),
		Command:    "java",
		LogPath:    m.paths.SessionLogFile(session.ID.String()),
		WorkingDir: m.paths.RepoDir(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch mapping tool: %w", err)
	}

	if err := m.store.Append(ctx, session); err != nil {
		// Roll back: the record never existed, so the process must not
		// outlive this call either.
		if stopErr := process.Stop(m.stopTimeout); stopErr != nil {
			logging.Logger.Error("Failed to stop tool after persist failure",
				"session_id", session.ID, "error", stopErr)
		}
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	active := &activeSession{
		cancelWorkers: cancel,
		process:       process,
		session:       session,
	}

	m.mu.Lock()
	m.current = active
	m.mu.Unlock()

	go m.watchProcess(session.ID, process)
	go m.autoSaveLoop(workerCtx, session, time.Duration(settings.AutoSaveInterval)*time.Second)

	logging.Logger.Info("Session started",
		"session_id", session.ID,
		"revision", revision,
		"jar", jarInfo.Name,
		"pid", process.PID())

	return &session, nil
}

// FinishSession finishes the running session with the given id. A
// session that already reached FINISHED (for example through the
// abnormal-exit path) is reported as-is rather than failed.
func (m *SessionManager) FinishSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	m.gate.Lock()
	defer m.gate.Unlock()

	active := m.snapshot()
	if active == nil || active.session.ID != id {
		// The abnormal-finish path may have won the gate; observe the
		// stored state instead of erroring on the race.
		stored, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if stored.State == domain.StateFinished {
			return stored, nil
		}
		return nil, domain.ErrNoSessionRunning
	}

	return m.finishLocked(ctx, active, false)
}

// watchProcess services the exit notification: a process death with no
// finish in flight forces the abnormal-finish transition so the system
// can never stay RUNNING against a dead tool.
func (m *SessionManager) watchProcess(id uuid.UUID, process ports.ToolProcess) {
	<-process.Done()

	m.gate.Lock()
	defer m.gate.Unlock()

	active := m.snapshot()
	if active == nil || active.session.ID != id {
		// A normal FinishSession won the gate first
		return
	}

	logging.Logger.Warn("Tool process exited unexpectedly, finishing session abnormally",
		"session_id", id,
		"exit_code", process.ExitCode())

	if _, err := m.finishLocked(context.Background(), active, true); err != nil {
		logging.Logger.Error("Abnormal finish failed", "session_id", id, "error", err)
	}
}

// finishLocked performs the FINISHING transition. Callers hold the gate.
func (m *SessionManager) finishLocked(ctx context.Context, active *activeSession, abnormal bool) (*domain.Session, error) {
	active.cancelWorkers()

	if !abnormal {
		if err := active.process.Stop(m.stopTimeout); err != nil {
			logging.Logger.Error("Failed to stop tool process",
				"session_id", active.session.ID, "error", err)
		}
	}

	// The patch is the durable source of truth for the session's work
	patch, err := m.git.DiffSince(ctx, active.session.Revision)
	if err != nil {
		logging.Logger.Error("Failed to compute session patch",
			"session_id", active.session.ID, "error", err)
		patch = ""
	}

	patchFile := m.paths.SessionPatchFile(active.session.ID.String())
	if err := os.WriteFile(patchFile, []byte(patch), 0644); err != nil {
		logging.Logger.Error("Failed to write patch file",
			"session_id", active.session.ID, "error", err)
	}

	// Leave a clean tree for the next session once the patch is captured
	if err := m.git.Reset(ctx, active.session.Revision); err != nil {
		logging.Logger.Error("Failed to reset working tree",
			"session_id", active.session.ID, "error", err)
	}

	// Post-session command is best-effort: its failure is recorded on
	// the session but never blocks FINISHED.
	postCmdError := ""
	if settings, err := m.settings.Snapshot(); err == nil {
		if _, err := m.cmdRunner.Run(ctx, settings.PostSessionCmd, m.paths.RepoDir()); err != nil {
			logging.Logger.Error("Post-session command failed",
				"session_id", active.session.ID, "error", err)
			postCmdError = err.Error()
		}
	}

	if err := m.store.MarkFinished(ctx, active.session.ID, ports.FinishRecord{
		Abnormal:     abnormal,
		Patch:        patch,
		PostCmdError: postCmdError,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist finished session: %w", err)
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	logging.Logger.Info("Session finished",
		"session_id", active.session.ID,
		"abnormal", abnormal)

	return m.store.Get(ctx, active.session.ID)
}

// autoSaveLoop checkpoints in-progress work while the session runs.
// It reads tree state only and never takes the single-writer gate.
func (m *SessionManager) autoSaveLoop(ctx context.Context, session domain.Session, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			patch, err := m.git.DiffSince(ctx, session.Revision)
			if err != nil {
				logging.Logger.Debug("Auto-save diff failed",
					"session_id", session.ID, "error", err)
				continue
			}

			checkpoint := m.paths.SessionCheckpointFile(session.ID.String())
			if err := os.WriteFile(checkpoint, []byte(patch), 0644); err != nil {
				logging.Logger.Debug("Auto-save write failed",
					"session_id", session.ID, "error", err)
			}
		}
	}
}

// CurrentSession returns a snapshot of the running session, if any.
// It never blocks on the single-writer gate.
func (m *SessionManager) CurrentSession() *domain.Session {
	if active := m.snapshot(); active != nil {
		session := active.session
		return &session
	}
	return nil
}

// AttachLog attaches a reader to the running session's live tool
// output. The reader sees output from this point onward; closing it
// never affects the process or other readers.
func (m *SessionManager) AttachLog(id uuid.UUID) (io.ReadCloser, error) {
	active := m.snapshot()
	if active == nil || active.session.ID != id {
		return nil, domain.ErrNoSessionRunning
	}
	return active.process.Attach(), nil
}

// GetSession returns a session record by id
func (m *SessionManager) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return m.store.Get(ctx, id)
}

// ListRecent returns session records, most recent first
func (m *SessionManager) ListRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	return m.store.ListRecent(ctx, limit)
}

// ListRunning returns the running session listing (0 or 1 records)
func (m *SessionManager) ListRunning(ctx context.Context) ([]domain.Session, error) {
	return m.store.ListRunning(ctx)
}

// GateMutation runs fn while holding the single-writer gate, failing
// with ErrBusy when a session is running or a transition is in flight.
// Repository mutations go through here so git and the mapping tool
// never touch the working tree at the same time.
func (m *SessionManager) GateMutation(fn func() error) error {
	if !m.gate.TryLock() {
		return domain.ErrBusy
	}
	defer m.gate.Unlock()

	if m.snapshot() != nil {
		return domain.ErrBusy
	}
	return fn()
}

func (m *SessionManager) snapshot() *activeSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// toolArgs builds the mapping tool invocation from a settings snapshot
func toolArgs(settings config.Settings, toolPassword string) []string {
	var args []string
	if settings.Classpath != "" {
		args = append(args, "-cp", settings.Classpath)
	}
	args = append(args, settings.EnigmaMainClass,
		"-jar", settings.JarFile,
		"-mappings", settings.MappingsFile)
	if toolPassword != "" {
		args = append(args, "-password", toolPassword)
	}
	args = append(args, strings.Fields(settings.EnigmaArgs)...)
	return args
}
