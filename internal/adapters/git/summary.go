package git

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"colab/internal/domain"
	"colab/internal/logging"
)

// TreeSummary implements TreeSummaryProvider.TreeSummary.
// Uses errgroup for concurrent collection with context cancellation.
func (r *CLIRepository) TreeSummary(ctx context.Context) (*domain.TreeSummary, error) {
	if !r.IsCloned() {
		return nil, domain.ErrNotCloned
	}

	summary := &domain.TreeSummary{
		FetchedAt: time.Now(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ahead, behind, err := getAheadBehind(ctx, r.repoDir)
		if err != nil {
			// No tracking branch is common right after clone, non-fatal
			logging.Logger.Debug("Failed to get ahead/behind", "error", err)
			return nil
		}
		summary.Ahead = ahead
		summary.Behind = behind
		return nil
	})

	g.Go(func() error {
		additions, deletions, fileCount, err := getFileStats(ctx, r.repoDir)
		if err != nil {
			logging.Logger.Debug("Failed to get file stats", "error", err)
			return nil
		}
		summary.Additions = additions
		summary.ChangedFiles = fileCount
		summary.Deletions = deletions
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// getAheadBehind returns how many commits ahead and behind the tracking branch
func getAheadBehind(ctx context.Context, dir string) (ahead, behind int, err error) {
	cmd := exec.CommandContext(ctx, "git", "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Fields(strings.TrimSpace(string(output)))
	if len(parts) != 2 {
		return 0, 0, nil
	}

	ahead, _ = strconv.Atoi(parts[0])
	behind, _ = strconv.Atoi(parts[1])
	return ahead, behind, nil
}

var shortstatRe = regexp.MustCompile(`(\d+) files? changed(?:, (\d+) insertions?\(\+\))?(?:, (\d+) deletions?\(-\))?`)

// getFileStats returns working tree additions, deletions and changed file count
func getFileStats(ctx context.Context, dir string) (additions, deletions, fileCount int, err error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--shortstat", "HEAD")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, err
	}

	matches := shortstatRe.FindStringSubmatch(string(output))
	if matches == nil {
		return 0, 0, 0, nil
	}

	fileCount, _ = strconv.Atoi(matches[1])
	if matches[2] != "" {
		additions, _ = strconv.Atoi(matches[2])
	}
	if matches[3] != "" {
		deletions, _ = strconv.Atoi(matches[3])
	}
	return additions, deletions, fileCount, nil
}
