package process

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colab/internal/ports"
)

func waitDone(t *testing.T, p ports.ToolProcess, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(timeout):
		t.Fatal("process did not exit in time")
	}
}

func TestLaunch_RunsToCompletion(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "tool.log")

	p, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Args:       []string{"-c", "echo tool output; exit 7"},
		Command:    "sh",
		LogPath:    logPath,
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Greater(t, p.PID(), 0)
	waitDone(t, p, 10*time.Second)

	assert.False(t, p.Alive())
	assert.Equal(t, 7, p.ExitCode())

	log, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(log), "tool output")
}

func TestLaunch_AttachStreamsOutput(t *testing.T) {
	p, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Args:       []string{"-c", "sleep 0.2; echo streamed line; sleep 0.2"},
		Command:    "sh",
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)

	reader := p.Attach()
	defer reader.Close()

	lineCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), "streamed line") {
				lineCh <- scanner.Text()
				return
			}
		}
	}()

	select {
	case line := <-lineCh:
		assert.Contains(t, line, "streamed line")
	case <-time.After(10 * time.Second):
		t.Fatal("attached reader never saw tool output")
	}

	waitDone(t, p, 10*time.Second)
}

func TestLaunch_DetachLeavesProcessRunning(t *testing.T) {
	p, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Args:       []string{"-c", "sleep 2"},
		Command:    "sh",
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)
	defer p.Stop(5 * time.Second)

	reader := p.Attach()
	require.NoError(t, reader.Close())

	assert.True(t, p.Alive())
}

func TestStop_TerminatesProcess(t *testing.T) {
	p, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Args:       []string{"-c", "sleep 30"},
		Command:    "sh",
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.True(t, p.Alive())

	start := time.Now()
	require.NoError(t, p.Stop(5*time.Second))

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.False(t, p.Alive())
	waitDone(t, p, time.Second)
}

func TestStop_AfterExitIsNoOp(t *testing.T) {
	p, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Args:       []string{"-c", "true"},
		Command:    "sh",
		WorkingDir: t.TempDir(),
	})
	require.NoError(t, err)

	waitDone(t, p, 10*time.Second)
	assert.NoError(t, p.Stop(time.Second))
}

func TestLaunch_UnknownCommand(t *testing.T) {
	_, err := NewPTYSupervisor().Launch(ports.LaunchSpec{
		Command:    "definitely-not-a-real-binary",
		WorkingDir: t.TempDir(),
	})
	assert.Error(t, err)
}
