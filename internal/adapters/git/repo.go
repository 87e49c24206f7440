package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"colab/internal/domain"
	"colab/internal/logging"
)

// run executes a git command in dir and returns its combined output.
// Failures carry the command output, which is what git reports conflicts
// and unknown refs through.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s failed: %w\nOutput: %s",
			strings.Join(args, " "), err, string(output))
	}
	return string(output), nil
}

// isCloned reports whether repoDir holds a checked out repository
func isCloned(repoDir string) bool {
	_, err := os.Stat(filepath.Join(repoDir, ".git"))
	return err == nil
}

// clone clones url into repoDir, restricted to branch when given
func clone(ctx context.Context, url, repoDir, branch string) error {
	logging.Logger.Info("Cloning repository", "url", url, "target", repoDir, "branch", branch)

	if err := os.MkdirAll(filepath.Dir(repoDir), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch, "--single-branch")
	}
	args = append(args, url, repoDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logging.Logger.Error("Git clone failed", "error", err, "output", string(output))
		// A half-written tree would block every later clone attempt
		os.RemoveAll(repoDir)
		if isUnknownBranch(string(output)) {
			return fmt.Errorf("%w: %s", domain.ErrBranchNotFound, branch)
		}
		return fmt.Errorf("failed to clone repository: %w\nOutput: %s", err, string(output))
	}

	logging.Logger.Info("Repository cloned", "path", repoDir, "branch", branch)
	return nil
}

// isConflict matches git output reporting that local state blocks the operation
func isConflict(output string) bool {
	markers := []string{
		"CONFLICT",
		"Not possible to fast-forward",
		"would be overwritten by",
		"needs merge",
		"You have unstaged changes",
		"Your local changes",
	}
	for _, marker := range markers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// isUnknownBranch matches git output for a ref that does not exist
func isUnknownBranch(output string) bool {
	markers := []string{
		"did not match any file(s) known to git",
		"Remote branch",
		"not found in upstream",
		"unknown revision or path",
		"is not a commit and a branch",
	}
	for _, marker := range markers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
