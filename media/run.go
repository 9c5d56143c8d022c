package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// command configures a subprocess to execute.
type command struct {
	// binary is the executable path or name (resolved via PATH).
	binary string
	// args are the command-line arguments.
	args []string
	// stdin provides input to the process. May be nil.
	stdin io.Reader
	// gracePeriod is how long to wait after SIGTERM before SIGKILL.
	gracePeriod time.Duration
}

// runResult holds the output and status of a completed subprocess.
type runResult struct {
	stdout   []byte
	stderr   []byte
	exitCode int
	duration time.Duration
}

// run executes a subprocess and waits for it to complete. If the context is
// canceled, SIGTERM is sent first, then SIGKILL after the grace period.
func run(ctx context.Context, cmd command) (*runResult, error) {
	if cmd.binary == "" {
		return nil, fmt.Errorf("media: binary is required")
	}

	gracePeriod := cmd.gracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.binary, cmd.args...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.stdin != nil {
		c.Stdin = cmd.stdin
	}

	// Use a process group so the whole tree can be killed.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	exitCode := -1
	if c.ProcessState != nil {
		exitCode = c.ProcessState.ExitCode()
	}
	result := &runResult{
		stdout:   stdout.Bytes(),
		stderr:   stderr.Bytes(),
		exitCode: exitCode,
		duration: duration,
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("media: killed by context: %w", ctx.Err())
		}
		return result, fmt.Errorf("media: exit code %d: %w", result.exitCode, err)
	}
	return result, nil
}
