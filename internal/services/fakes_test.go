package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"colab/internal/domain"
	"colab/internal/ports"
)

// fakeStore is an in-memory ports.SessionStore
type fakeStore struct {
	mu        sync.Mutex
	appendErr error
	sessions  map[uuid.UUID]domain.Session
}

var _ ports.SessionStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]domain.Session)}
}

func (s *fakeStore) Append(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) MarkFinished(ctx context.Context, id uuid.UUID, record ports.FinishRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.State == domain.StateFinished {
		return domain.ErrSessionFinished
	}

	now := time.Now().UTC()
	session.Abnormal = record.Abnormal
	session.FinishedAt = &now
	session.Patch = record.Patch
	session.PostCmdError = record.PostCmdError
	session.State = domain.StateFinished
	s.sessions[id] = session
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *fakeStore) ListRunning(ctx context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Session
	for _, session := range s.sessions {
		if session.State == domain.StateRunning {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeStore) ListRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Session
	for _, session := range s.sessions {
		out = append(out, session)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeGit is a scripted ports.GitRepository
type fakeGit struct {
	mu         sync.Mutex
	branches   []string
	cloned     bool
	diff       string
	diffErr    error
	head       string
	pullErr    error
	resetCalls []string
}

var _ ports.GitRepository = (*fakeGit)(nil)

func newFakeGit() *fakeGit {
	return &fakeGit{
		branches: []string{"master"},
		cloned:   true,
		head:     "1a2b3c4d5e6f",
	}
}

func (g *fakeGit) IsCloned() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cloned
}

func (g *fakeGit) Clone(ctx context.Context, url, branch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cloned {
		return domain.ErrAlreadyCloned
	}
	g.cloned = true
	return nil
}

func (g *fakeGit) Fetch(ctx context.Context) error { return nil }

func (g *fakeGit) Pull(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pullErr
}

func (g *fakeGit) Checkout(ctx context.Context, branch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.branches {
		if b == branch {
			return nil
		}
	}
	return domain.ErrBranchNotFound
}

func (g *fakeGit) HeadRevision(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.head, nil
}

func (g *fakeGit) CurrentBranch(ctx context.Context) (string, error) { return "master", nil }

func (g *fakeGit) ListBranches(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.branches, nil
}

func (g *fakeGit) DiffSince(ctx context.Context, revision string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.diff, g.diffErr
}

func (g *fakeGit) Reset(ctx context.Context, revision string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetCalls = append(g.resetCalls, revision)
	return nil
}

func (g *fakeGit) TreeSummary(ctx context.Context) (*domain.TreeSummary, error) {
	return &domain.TreeSummary{FetchedAt: time.Now()}, nil
}

func (g *fakeGit) resets() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.resetCalls...)
}

// fakeProcess is a controllable ports.ToolProcess
type fakeProcess struct {
	mu       sync.Mutex
	done     chan struct{}
	exitCode int
	stopped  bool
}

var _ ports.ToolProcess = (*fakeProcess)(nil)

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *fakeProcess) Attach() io.ReadCloser {
	return io.NopCloser(strings.NewReader("tool output\n"))
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *fakeProcess) PID() int { return 4242 }

func (p *fakeProcess) Stop(timeout time.Duration) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.exit(0)
	return nil
}

func (p *fakeProcess) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// exit simulates process termination, normal or crash
func (p *fakeProcess) exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
	default:
		p.exitCode = code
		close(p.done)
	}
}

// fakeSupervisor hands out fakeProcess handles
type fakeSupervisor struct {
	mu        sync.Mutex
	launchErr error
	processes []*fakeProcess
	specs     []ports.LaunchSpec
}

var _ ports.Supervisor = (*fakeSupervisor)(nil)

func (s *fakeSupervisor) Launch(spec ports.LaunchSpec) (ports.ToolProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launchErr != nil {
		return nil, s.launchErr
	}

	p := newFakeProcess()
	s.processes = append(s.processes, p)
	s.specs = append(s.specs, spec)
	return p, nil
}

func (s *fakeSupervisor) lastProcess() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.processes) == 0 {
		return nil
	}
	return s.processes[len(s.processes)-1]
}

func (s *fakeSupervisor) lastSpec() ports.LaunchSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.specs) == 0 {
		return ports.LaunchSpec{}
	}
	return s.specs[len(s.specs)-1]
}

// fakeInspector returns a fixed jar identity
type fakeInspector struct {
	mu    sync.Mutex
	err   error
	paths []string
}

var _ ports.JarInspector = (*fakeInspector)(nil)

func (i *fakeInspector) Identify(path string) (domain.JarInfo, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return domain.JarInfo{}, i.err
	}
	i.paths = append(i.paths, path)
	return domain.JarInfo{Name: "game.jar", SHA256: "cafebabe"}, nil
}

// fakeRunner records executed command lines and fails on demand
type fakeRunner struct {
	mu      sync.Mutex
	failOn  string
	failErr error
	runs    []string
}

var _ ports.CommandRunner = (*fakeRunner)(nil)

func (r *fakeRunner) Run(ctx context.Context, commandLine, dir string) (string, error) {
	if strings.TrimSpace(commandLine) == "" {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, commandLine)
	if r.failOn != "" && commandLine == r.failOn {
		return "", r.failErr
	}
	return "", nil
}

func (r *fakeRunner) ranCommands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}
