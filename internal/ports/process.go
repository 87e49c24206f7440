package ports

import (
	"io"
	"time"
)

// LaunchSpec describes the external mapping tool invocation
type LaunchSpec struct {
	Args       []string
	Command    string
	LogPath    string // file receiving a full copy of the tool output
	WorkingDir string
}

// ToolProcess is an opaque handle to a supervised mapping tool process
type ToolProcess interface {
	// Alive reports whether the process is still running.
	Alive() bool

	// Attach returns a reader that observes all tool output produced
	// from the point of attachment onward. Closing the reader detaches
	// it without affecting the process or other readers.
	Attach() io.ReadCloser

	// Done is closed exactly once when the process exits, whether
	// gracefully, forced, or by crash.
	Done() <-chan struct{}

	// ExitCode returns the exit code once the process has terminated.
	ExitCode() int

	// PID returns the operating system process id.
	PID() int

	// Stop sends a graceful termination signal, escalates to a forced
	// kill after timeout, and returns once the process has exited.
	Stop(timeout time.Duration) error
}

// Supervisor launches and supervises mapping tool processes
type Supervisor interface {
	Launch(spec LaunchSpec) (ToolProcess, error)
}
