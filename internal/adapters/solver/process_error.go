package solver

import (
	"cart-route-service/internal/domain"
	"fmt"
)

// ProcessError reports a solver process that exited non-zero.
// It unwraps to domain.ErrSolverProcessFailed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Stdout   string
}

func (e *ProcessError) Error() string {
	diag := e.Stderr
	if diag == "" {
		diag = e.Stdout
	}
	return fmt.Sprintf("solve: exit code %d: %s", e.ExitCode, diag)
}

func (e *ProcessError) Unwrap() error { return domain.ErrSolverProcessFailed }
