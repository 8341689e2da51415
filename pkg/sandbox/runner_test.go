package sandbox

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, root string) *ProcessRunner {
	t.Helper()

	runner, err := NewProcessRunner(Config{
		InterpreterPath: "sh",
		WorkspaceRoot:   root,
		Timeout:         5 * time.Second,
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, err)
	return runner
}

func requireEmptyDir(t *testing.T, root string) {
	t.Helper()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries, "isolation directory should be removed after the call")
}

func TestExecuteCapturesStdout(t *testing.T) {
	root := t.TempDir()
	runner := newTestRunner(t, root)

	result, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "main.sh", Content: "echo hello"}},
		EntryPoint: "main.sh",
	})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.False(t, result.TimedOut)
	require.Equal(t, "hello", strings.TrimSpace(result.Stdout))
	requireEmptyDir(t, root)
}

func TestExecuteWritesStdinOnce(t *testing.T) {
	runner := newTestRunner(t, t.TempDir())

	result, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "main.sh", Content: "read value\necho \"got $value\""}},
		EntryPoint: "main.sh",
		Stdin:      "5 3\n",
	})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "got 5 3", strings.TrimSpace(result.Stdout))
}

func TestExecuteSupportsAuxiliaryFiles(t *testing.T) {
	runner := newTestRunner(t, t.TempDir())

	result, err := runner.Execute(context.Background(), Request{
		Files: []File{
			{Path: "main.sh", Content: ". ./lib/helper.sh\ngreet"},
			{Path: "lib/helper.sh", Content: "greet() { echo teamwork; }"},
		},
		EntryPoint: "main.sh",
	})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "teamwork", strings.TrimSpace(result.Stdout))
}

func TestExecutePropagatesExitCode(t *testing.T) {
	runner := newTestRunner(t, t.TempDir())

	result, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "main.sh", Content: "echo oops >&2\nexit 3"}},
		EntryPoint: "main.sh",
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.ExitCode)
	require.Contains(t, result.Stderr, "oops")
}

func TestExecuteKillsProcessOnTimeout(t *testing.T) {
	root := t.TempDir()
	runner := newTestRunner(t, root)

	start := time.Now()
	result, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "main.sh", Content: "sleep 30"}},
		EntryPoint: "main.sh",
		Timeout:    300 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.True(t, result.TimedOut)
	require.Equal(t, -1, result.ExitCode, "timeout must report the sentinel, not a real exit code")
	require.Contains(t, result.Stderr, "timed out")
	require.Less(t, elapsed, 5*time.Second)
	requireEmptyDir(t, root)
}

func TestExecuteReportsSpawnFailureAsResult(t *testing.T) {
	root := t.TempDir()
	runner, err := NewProcessRunner(Config{
		InterpreterPath: "/nonexistent/interpreter-binary",
		WorkspaceRoot:   root,
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, err)

	result, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "main.sh", Content: "echo unreachable"}},
		EntryPoint: "main.sh",
	})
	require.NoError(t, err, "spawn failure is reported in the result, never raised")
	require.Equal(t, -1, result.ExitCode)
	require.NotEmpty(t, result.Stderr)
	requireEmptyDir(t, root)
}

func TestExecuteRejectsEscapingFilePaths(t *testing.T) {
	root := t.TempDir()
	runner := newTestRunner(t, root)

	_, err := runner.Execute(context.Background(), Request{
		Files:      []File{{Path: "../evil.sh", Content: "echo escaped"}},
		EntryPoint: "main.sh",
	})
	require.Error(t, err)
	requireEmptyDir(t, root)
}

func TestExecuteRequiresEntryPoint(t *testing.T) {
	runner := newTestRunner(t, t.TempDir())

	_, err := runner.Execute(context.Background(), Request{})
	require.Error(t, err)
}
