package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"colab/internal/logging"
	"colab/internal/ports"
)

// PTYSupervisor implements ports.Supervisor by running the mapping
// tool under a pseudo-terminal, which keeps its console output
// line-buffered for live streaming.
type PTYSupervisor struct{}

// Verify interface compliance at compile time
var _ ports.Supervisor = (*PTYSupervisor)(nil)

// NewPTYSupervisor creates a new PTYSupervisor
func NewPTYSupervisor() *PTYSupervisor {
	return &PTYSupervisor{}
}

// Launch implements Supervisor.Launch
func (s *PTYSupervisor) Launch(spec ports.LaunchSpec) (ports.ToolProcess, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir

	var logFile *os.File
	if spec.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		logFile, err = os.Create(spec.LogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create tool log file: %w", err)
		}
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to launch %s: %w", spec.Command, err)
	}

	logging.Logger.Info("Tool process launched",
		"command", spec.Command,
		"pid", cmd.Process.Pid,
		"working_dir", spec.WorkingDir)

	p := &toolProcess{
		broadcaster: newBroadcaster(),
		cmd:         cmd,
		done:        make(chan struct{}),
		logFile:     logFile,
		ptmx:        ptmx,
	}

	go p.pump()
	return p, nil
}

// toolProcess is the supervised handle for one launched tool
type toolProcess struct {
	broadcaster *broadcaster
	cmd         *exec.Cmd
	done        chan struct{}
	exitCode    int
	logFile     *os.File
	mu          sync.Mutex
	ptmx        *os.File
}

// pump copies tool output into the log file and the broadcaster until
// the process exits, then records the exit code and closes done
// exactly once.
func (p *toolProcess) pump() {
	var sink io.Writer = p.broadcaster
	if p.logFile != nil {
		sink = io.MultiWriter(p.logFile, p.broadcaster)
	}

	// The pty read returns EIO once the child exits; that is the
	// normal end-of-stream signal, not a failure.
	if _, err := io.Copy(sink, p.ptmx); err != nil && !errors.Is(err, syscall.EIO) {
		logging.Logger.Debug("Tool output pump ended", "error", err)
	}

	err := p.cmd.Wait()

	p.mu.Lock()
	p.exitCode = p.cmd.ProcessState.ExitCode()
	p.mu.Unlock()

	p.ptmx.Close()
	if p.logFile != nil {
		p.logFile.Close()
	}
	p.broadcaster.Close()

	logging.Logger.Info("Tool process exited",
		"pid", p.cmd.Process.Pid,
		"exit_code", p.cmd.ProcessState.ExitCode(),
		"error", err)

	close(p.done)
}

// Alive implements ToolProcess.Alive
func (p *toolProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Attach implements ToolProcess.Attach
func (p *toolProcess) Attach() io.ReadCloser {
	return p.broadcaster.Attach()
}

// Done implements ToolProcess.Done
func (p *toolProcess) Done() <-chan struct{} {
	return p.done
}

// ExitCode implements ToolProcess.ExitCode
func (p *toolProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// PID implements ToolProcess.PID
func (p *toolProcess) PID() int {
	return p.cmd.Process.Pid
}

// Stop implements ToolProcess.Stop: SIGTERM, bounded wait, SIGKILL.
func (p *toolProcess) Stop(timeout time.Duration) error {
	if !p.Alive() {
		return nil
	}

	logging.Logger.Info("Stopping tool process", "pid", p.cmd.Process.Pid, "timeout", timeout)

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to signal tool process: %w", err)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
	}

	logging.Logger.Warn("Tool process did not exit in time, killing", "pid", p.cmd.Process.Pid)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill tool process: %w", err)
	}

	<-p.done
	return nil
}
