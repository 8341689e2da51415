package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grader",
		Subsystem: "sandbox",
		Name:      "run_duration_seconds",
		Help:      "Duration of sandboxed program executions",
		Buckets:   prometheus.DefBuckets,
	}, []string{"interpreter"})

	runTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "sandbox",
		Name:      "run_timeouts_total",
		Help:      "Number of executions that hit the timeout",
	}, []string{"interpreter"})

	runFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "sandbox",
		Name:      "run_failures_total",
		Help:      "Number of executions that could not be started or waited on",
	}, []string{"interpreter"})
)

// Runner defines the behaviour for executing one program in isolation.
type Runner interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// File is a source file to materialize inside the isolation directory.
type File struct {
	Path    string
	Content string
}

// Request describes a single sandboxed execution.
type Request struct {
	Files      []File
	EntryPoint string
	Stdin      string
	Timeout    time.Duration
}

// Result summarises the outcome of one execution. Stdout and Stderr are raw
// and untrimmed; normalization is the caller's responsibility. ExitCode is -1
// when the process timed out or never started, never a real exit code.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	MaxRSSKB int64
}

// Config groups runner configuration values.
type Config struct {
	// InterpreterPath is the external interpreter binary, e.g. "python3".
	InterpreterPath string
	// InterpreterArgs are passed before the entry file, e.g. ["-u"].
	InterpreterArgs []string
	// WorkspaceRoot is where isolation directories are created. Defaults to
	// the OS temp dir.
	WorkspaceRoot string
	// Timeout applies when a request does not carry its own.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// ProcessRunner executes programs by spawning the configured interpreter as a
// child process rooted at a throwaway isolation directory. It is stateless
// aside from that directory, so concurrent calls need no coordination.
type ProcessRunner struct {
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewProcessRunner constructs a process-backed runner.
func NewProcessRunner(cfg Config) (*ProcessRunner, error) {
	if cfg.InterpreterPath == "" {
		return nil, errors.New("interpreter path is required")
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}

	return &ProcessRunner{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/codenest-edu/grader-api/pkg/sandbox"),
		logger: cfg.Logger.With().Str("component", "sandbox_runner").Logger(),
	}, nil
}

// Execute runs the program described by req inside a fresh isolation
// directory. The directory is removed before Execute returns on every path:
// normal completion, timeout, and spawn failure. A spawn failure is reported
// as a Result with ExitCode -1 and a nil error, never raised.
func (r *ProcessRunner) Execute(parent context.Context, req Request) (Result, error) {
	if req.EntryPoint == "" {
		return Result{}, errors.New("entry point is required")
	}

	ctx, span := r.tracer.Start(parent, "sandbox.runner.execute", trace.WithAttributes(
		attribute.String("sandbox.interpreter", r.cfg.InterpreterPath),
		attribute.String("sandbox.entry_point", req.EntryPoint),
	))
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}

	dir := filepath.Join(r.cfg.WorkspaceRoot, "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("create isolation dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Error().Err(err).Str("dir", dir).Msg("failed to remove isolation dir")
		}
	}()

	if err := r.materialize(dir, req.Files); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.cfg.InterpreterArgs...), req.EntryPoint)
	cmd := exec.CommandContext(ctx, r.cfg.InterpreterPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stdin = strings.NewReader(req.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Bound Wait even if a grandchild inherits the output pipes.
	cmd.WaitDelay = time.Second

	start := time.Now()
	result := Result{ExitCode: -1}

	if err := cmd.Start(); err != nil {
		runFailures.WithLabelValues(r.cfg.InterpreterPath).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "spawn failure")
		result.Stderr = fmt.Sprintf("process error: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	runDuration.WithLabelValues(r.cfg.InterpreterPath).Observe(result.Duration.Seconds())

	if state := cmd.ProcessState; state != nil {
		if usage, ok := state.SysUsage().(*syscall.Rusage); ok && usage != nil {
			result.MaxRSSKB = usage.Maxrss
		}
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.Stderr += "\nExecution timed out."
		runTimeouts.WithLabelValues(r.cfg.InterpreterPath).Inc()
		span.SetStatus(codes.Error, "execution timed out")
	case waitErr == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			runFailures.WithLabelValues(r.cfg.InterpreterPath).Inc()
			result.Stderr += fmt.Sprintf("\nprocess error: %v", waitErr)
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, waitErr.Error())
		}
	}

	span.SetAttributes(
		attribute.Int("sandbox.exit_code", result.ExitCode),
		attribute.Bool("sandbox.timed_out", result.TimedOut),
	)

	return result, nil
}

// materialize writes every listed file under dir, creating parent
// subdirectories as needed. Paths escaping the isolation directory are
// rejected.
func (r *ProcessRunner) materialize(dir string, files []File) error {
	for _, file := range files {
		if file.Path == "" {
			return errors.New("file path must not be empty")
		}

		full := filepath.Join(dir, filepath.Clean(file.Path))
		if full != dir && !strings.HasPrefix(full, dir+string(filepath.Separator)) {
			return fmt.Errorf("file path escapes isolation dir: %s", file.Path)
		}

		if parent := filepath.Dir(full); parent != dir {
			if err := os.MkdirAll(parent, 0o700); err != nil {
				return fmt.Errorf("create subdirectory for %s: %w", file.Path, err)
			}
		}

		if err := os.WriteFile(full, []byte(file.Content), 0o600); err != nil {
			return fmt.Errorf("write file %s: %w", file.Path, err)
		}
	}

	return nil
}
