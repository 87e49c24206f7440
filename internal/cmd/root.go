package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"colab/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"100"`

	Serve ServeCmd `cmd:"" help:"Run the collaboration server (default)" default:"1"`

	// Internal fields (not flags)
	Container *Container `kong:"-"`
}

// AfterApply initializes logging after CLI parsing
func (c *CLI) AfterApply() error {
	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Child processes (git, hooks, the mapping tool wrapper) inherit
	// debug settings and append to the same log file
	if c.Debug || c.DebugFile != "" {
		os.Setenv("COLAB_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("COLAB_DEBUG_FILE", logFilePath)
		}
	}
	if c.MaxLogFiles != 100 {
		os.Setenv("COLAB_MAX_LOG_FILES", fmt.Sprintf("%d", c.MaxLogFiles))
	}

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}
