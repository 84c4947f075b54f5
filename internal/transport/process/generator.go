// Package process runs a local model CLI (ollama by default) as the generation backend.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// BackendName identifies this generation backend in metrics and health output.
const BackendName = "process"

const (
	// DefaultCommand is the model runner executable.
	DefaultCommand = "ollama"
	// DefaultTimeout bounds one generation call.
	DefaultTimeout = 120 * time.Second

	maxStderr = 4 << 10
	waitDelay = 2 * time.Second
)

// Config holds the process backend settings.
// Nil Args means "run <model>"; an empty non-nil slice passes no arguments.
type Config struct {
	Command string
	Args    []string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Generator feeds the prompt to a child process on stdin and returns its stdout.
type Generator struct {
	command string
	args    []string
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGenerator creates a process backed generator.
func NewGenerator(cfg Config) *Generator {
	g := &Generator{
		command: cfg.Command,
		args:    cfg.Args,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if g.command == "" {
		g.command = DefaultCommand
	}
	if g.args == nil {
		g.args = []string{"run", g.model}
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Backend implements domain.GenerationBackend.
func (g *Generator) Backend() string { return BackendName }

// Model implements domain.GenerationBackend.
func (g *Generator) Model() string { return g.model }

// Generate runs the command once. The child is killed when the timeout or ctx expires.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, g.command, g.args...) //nolint:gosec // command comes from operator config
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout bytes.Buffer
	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		gerr := g.classify(ctx, runCtx, err, stderr.String())
		g.logger.Warn("Generation process failed",
			zap.String("command", g.command),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(gerr),
		)
		return "", gerr
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", domain.NewGenerationError(domain.FailureEmptyOutput, nil)
	}

	g.logger.Debug("Generation process finished",
		zap.String("command", g.command),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("output_bytes", len(out)),
	)
	return out, nil
}

// HealthCheck verifies the executable can be resolved.
func (g *Generator) HealthCheck(_ context.Context) error {
	if _, err := exec.LookPath(g.command); err != nil {
		return domain.NewGenerationError(domain.FailureNotFound, err)
	}
	return nil
}

func (g *Generator) classify(parent, runCtx context.Context, err error, stderr string) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return domain.NewGenerationError(domain.FailureCanceled, parent.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return domain.NewGenerationError(domain.FailureTimeout,
			fmt.Errorf("no output within %s", g.timeout))
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return domain.NewGenerationError(domain.FailureNotFound, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			return domain.NewGenerationError(domain.FailureExitStatus,
				fmt.Errorf("exit status %d", exitErr.ExitCode()))
		}
		return domain.NewGenerationError(domain.FailureExitStatus,
			fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), msg))
	}
	return domain.NewGenerationError(domain.FailureExitStatus, err)
}

// limitedBuffer keeps the first max bytes written and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
