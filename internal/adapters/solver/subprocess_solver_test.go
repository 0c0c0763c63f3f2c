package solver

import (
	"cart-route-service/internal/domain"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequest = domain.SolverRequest{
	Corrals: map[string]domain.SolverCorral{
		"A": {X: 0, Y: 0, Count: 0},
		"B": {X: 1, Y: 0, Count: 20},
		"C": {X: 2, Y: 0, Count: 12},
	},
	Depot: "A",
}

// shellSolver runs script under /bin/sh, skipping the test when no shell exists.
func shellSolver(t *testing.T, script string, opts ...Option) *SubprocessSolver {
	t.Helper()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	s, err := NewSubprocessSolver(sh, []string{"-c", script}, opts...)
	require.NoError(t, err)
	return s
}

func TestSubprocessSolverSuccess(t *testing.T) {
	s := shellSolver(t, `cat >/dev/null; echo '{"success": true, "optimizedRoute": ["A","B","C","A"], "totalDistance": 4, "method": "or-tools-tsp", "corralsCovered": 2}'`)

	res, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"A", "B", "C", "A"}, res.OptimizedRoute)
	assert.Equal(t, 4.0, res.TotalDistance)
	assert.Equal(t, "or-tools-tsp", res.Method)
	assert.Equal(t, 2, res.CorralsCovered)
}

func TestSubprocessSolverRunsInWorkDir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	s := shellSolver(t, `cat >/dev/null; printf '{"success": true, "optimizedRoute": ["A","A"], "method": "%s"}' "$(pwd -P)"`, WithWorkDir(dir))

	res, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, dir, res.Method)
}

func TestSubprocessSolverReceivesRequestOnStdin(t *testing.T) {
	// Echo the depot back through the route to prove the payload arrived.
	s := shellSolver(t, `in=$(cat); case "$in" in *'"depot":"A"'*) echo '{"success": true, "optimizedRoute": ["A","A"]}';; *) exit 3;; esac`)

	res, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A"}, res.OptimizedRoute)
}

func TestSubprocessSolverInfeasibleIsNotAnError(t *testing.T) {
	s := shellSolver(t, `cat >/dev/null; echo '{"success": false, "error": "No solution found"}'`)

	res, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No solution found", res.Message)
	assert.NotNil(t, res.OptimizedRoute)
}

func TestSubprocessSolverNonZeroExit(t *testing.T) {
	s := shellSolver(t, `cat >/dev/null; echo '{"success": false, "error": "No corrals provided"}'; echo 'Traceback: boom' >&2; exit 1`)

	_, err := s.Solve(context.Background(), testRequest)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSolverProcessFailed)

	var pe *ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.ExitCode)
	assert.Contains(t, pe.Stderr, "Traceback")
	assert.Contains(t, pe.Stdout, "No corrals provided")
}

func TestSubprocessSolverMalformedOutput(t *testing.T) {
	scripts := map[string]string{
		"not json":        `cat >/dev/null; echo 'hello'`,
		"empty":           `cat >/dev/null`,
		"missing success": `cat >/dev/null; echo '{"optimizedRoute": ["A"]}'`,
		"two objects":     `cat >/dev/null; echo '{"success": true}{"success": true}'`,
		"wrong types":     `cat >/dev/null; echo '{"success": "yes"}'`,
		"negative dist":   `cat >/dev/null; echo '{"success": true, "totalDistance": -1}'`,
	}

	for name, script := range scripts {
		t.Run(name, func(t *testing.T) {
			s := shellSolver(t, script)

			_, err := s.Solve(context.Background(), testRequest)
			assert.ErrorIs(t, err, domain.ErrSolverOutputInvalid)
		})
	}
}

func TestSubprocessSolverMissingExecutable(t *testing.T) {
	s, err := NewSubprocessSolver("definitely-not-a-real-solver-binary", nil)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), testRequest)
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)
}

func TestSubprocessSolverTimeoutKillsProcess(t *testing.T) {
	s := shellSolver(t, `exec sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Solve(ctx, testRequest)

	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSubprocessSolverCancelledContext(t *testing.T) {
	s := shellSolver(t, `cat >/dev/null; echo '{"success": true}'`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Solve(ctx, testRequest)
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)
}

func TestSubprocessSolverRateLimit(t *testing.T) {
	s := shellSolver(t, `cat >/dev/null; echo '{"success": true, "optimizedRoute": ["A","A"]}'`, WithRateLimit(0.001, 1))

	_, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), testRequest)
	assert.ErrorIs(t, err, domain.ErrSolverUnavailable)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]domain.RouteResult
	puts int
}

func (m *memoryCache) Get(ctx context.Context, key string) (domain.RouteResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[key]
	return r, ok, nil
}

func (m *memoryCache) Put(ctx context.Context, key string, r domain.RouteResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]domain.RouteResult{}
	}
	m.data[key] = r
	m.puts++
	return nil
}

func TestSubprocessSolverServesRepeatsFromCache(t *testing.T) {
	c := &memoryCache{}
	// Rate limit of one spawn proves the second call never reaches the process.
	s := shellSolver(t, `cat >/dev/null; echo '{"success": true, "optimizedRoute": ["A","C","B","A"], "totalDistance": 4}'`,
		WithCache(c), WithRateLimit(0.001, 1))

	first, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)

	second, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.puts)
}

func TestSubprocessSolverDoesNotCacheInfeasible(t *testing.T) {
	c := &memoryCache{}
	s := shellSolver(t, `cat >/dev/null; echo '{"success": false}'`, WithCache(c))

	_, err := s.Solve(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, 0, c.puts)
}

func TestNewSubprocessSolverRequiresCommand(t *testing.T) {
	_, err := NewSubprocessSolver("  ", nil)
	assert.Error(t, err)
}

func TestProcessErrorMessage(t *testing.T) {
	err := &ProcessError{ExitCode: 2, Stdout: "partial"}
	assert.Contains(t, err.Error(), "exit code 2")
	assert.Contains(t, err.Error(), "partial")
	assert.ErrorIs(t, err, domain.ErrSolverProcessFailed)
}
