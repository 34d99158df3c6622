// Package jobrun executes a scheduled job's shell command.
package jobrun

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"schedkit/pkg/logx"
)

// Output longer than this is truncated in logs; the command should do its
// own logging if it is chatty.
const maxLoggedOutput = 2048

// Runner runs one command line through the shell with an optional timeout.
// Its Run method is a scheduler callback: no arguments, nothing returned,
// every outcome goes to the log.
type Runner struct {
	name    string
	command string
	timeout time.Duration
	log     logx.Logger
}

func New(name, command string, timeout time.Duration, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{name: name, command: command, timeout: timeout, log: log}
}

func (r *Runner) Run() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", r.command)
	out, err := cmd.CombinedOutput()
	dur := time.Since(start)

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		r.log.Warn("job timed out",
			logx.String("job", r.name),
			logx.Duration("timeout", r.timeout),
			logx.String("output", truncate(out)))
	case err != nil:
		r.log.Warn("job failed",
			logx.String("job", r.name),
			logx.Duration("dur", dur),
			logx.Err(err),
			logx.String("output", truncate(out)))
	default:
		r.log.Info("job completed",
			logx.String("job", r.name),
			logx.Duration("dur", dur))
	}
}

func truncate(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxLoggedOutput {
		return s[:maxLoggedOutput] + "...(truncated)"
	}
	return s
}
