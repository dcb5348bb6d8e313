// Package hook runs the optional post-run command, typically a plotting
// script, against a finished run directory.
package hook

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const RunDirEnv = "DEBRISIM_RUN_DIR"

type Hook struct {
	Command string
	Args    []string
	Timeout time.Duration

	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// Run executes the command with the run directory exported in the
// environment. Args may also reference it as $DEBRISIM_RUN_DIR.
func (h *Hook) Run(ctx context.Context, runDir string) error {
	if h.Command == "" {
		return nil
	}
	logger := h.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	expand := strings.NewReplacer("${"+RunDirEnv+"}", runDir, "$"+RunDirEnv, runDir)
	args := make([]string, len(h.Args))
	for i, a := range h.Args {
		args[i] = expand.Replace(a)
	}

	cmd := exec.CommandContext(ctx, h.Command, args...)
	cmd.Env = append(os.Environ(), RunDirEnv+"="+runDir)
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		level.Warn(logger).Log("msg", "post-run hook failed", "command", h.Command, "err", err)
		return fmt.Errorf("post-run hook %s: %w", h.Command, err)
	}

	level.Info(logger).Log("msg", "post-run hook finished", "command", h.Command, "took", time.Since(start))
	return nil
}
