package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"colab/internal/logging"
	"colab/internal/ports"
)

// Runner implements ports.CommandRunner via `sh -c`, treating the
// configured pre/post-session hooks as opaque command lines.
type Runner struct{}

// Verify interface compliance at compile time
var _ ports.CommandRunner = (*Runner)(nil)

// NewRunner creates a new Runner
func NewRunner() *Runner {
	return &Runner{}
}

// Run implements CommandRunner.Run
func (r *Runner) Run(ctx context.Context, commandLine, dir string) (string, error) {
	if strings.TrimSpace(commandLine) == "" {
		return "", nil
	}

	logging.Logger.Info("Running external command", "command", commandLine, "dir", dir)

	cmd := exec.CommandContext(ctx, "sh", "-c", commandLine)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command %q failed: %w\nOutput: %s",
			commandLine, err, string(output))
	}
	return string(output), nil
}
