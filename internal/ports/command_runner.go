package ports

import "context"

// CommandRunner executes opaque external command strings (pre/post
// session hooks). The core only consumes success/failure and captured
// output, not shell semantics.
type CommandRunner interface {
	// Run executes the command line in dir and returns its combined
	// output. An empty command line is a no-op.
	Run(ctx context.Context, commandLine, dir string) (string, error)
}
