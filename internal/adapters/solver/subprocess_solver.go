package solver

import (
	"bytes"
	"cart-route-service/internal/adapters/cache"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/obs"
	"cart-route-service/internal/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxDiagnosticBytes = 4096

// SubprocessSolver implements RouteSolver by running an external program.
//
// Each Solve spawns one process, writes the request as JSON on stdin,
// closes stdin, and reads a single JSON result from stdout once the process
// exits. There is no retry. The process is killed when ctx is done.
//
// The solver is safe for concurrent use.
type SubprocessSolver struct {
	command string
	args    []string
	dir     string
	limiter *rate.Limiter
	cache   ports.RouteCache
}

type Option func(*SubprocessSolver)

// WithWorkDir runs the solver process in dir.
func WithWorkDir(dir string) Option {
	return func(s *SubprocessSolver) { s.dir = dir }
}

// WithRateLimit bounds how often processes are spawned. Requests over the
// limit fail immediately with ErrSolverUnavailable.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *SubprocessSolver) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCache serves repeated requests from c and stores successful results.
func WithCache(c ports.RouteCache) Option {
	return func(s *SubprocessSolver) { s.cache = c }
}

func NewSubprocessSolver(command string, args []string, opts ...Option) (*SubprocessSolver, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("new subprocess solver: command must be non-empty")
	}

	s := &SubprocessSolver{command: command, args: append([]string(nil), args...)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SubprocessSolver) Name() string { return "subprocess:" + s.command }

// response mirrors the solver's stdout contract. Success is a pointer so a
// payload without the field is rejected instead of read as false.
type response struct {
	Success        *bool    `json:"success"`
	OptimizedRoute []string `json:"optimizedRoute"`
	TotalDistance  float64  `json:"totalDistance"`
	Method         string   `json:"method"`
	CorralsCovered int      `json:"corralsCovered"`
	Note           string   `json:"note"`
	Message        string   `json:"message"`
	Error          string   `json:"error"`
}

func (s *SubprocessSolver) Solve(ctx context.Context, req domain.SolverRequest) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "solver.Solve")(&err)

	payload, err := encodeRequest(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("solve: encode request: %w", err)
	}

	return cached(ctx, s.cache, payload, func() (domain.RouteResult, error) {
		if s.limiter != nil && !s.limiter.Allow() {
			return domain.RouteResult{}, fmt.Errorf("solve: spawn rate limit exceeded: %w", domain.ErrSolverUnavailable)
		}

		stdout, err := s.run(ctx, payload)
		if err != nil {
			return domain.RouteResult{}, err
		}
		return decodeResponse(stdout)
	})
}

// cached serves payload from c when possible and stores successful results
// of solve. Cache failures are logged and otherwise ignored.
func cached(ctx context.Context, c ports.RouteCache, payload []byte, solve func() (domain.RouteResult, error)) (domain.RouteResult, error) {
	if c == nil {
		return solve()
	}

	key := cache.RouteKey(payload)
	res, ok, err := c.Get(ctx, key)
	if err != nil {
		log.Printf("req_id=%s op=solver.cache.Get warn=cache_error err=%v", obs.RequestID(ctx), err)
	} else if ok {
		return res, nil
	}

	res, err = solve()
	if err != nil {
		return domain.RouteResult{}, err
	}

	if res.Success {
		if err := c.Put(ctx, key, res); err != nil {
			log.Printf("req_id=%s op=solver.cache.Put warn=cache_error err=%v", obs.RequestID(ctx), err)
		}
	}
	return res, nil
}

func (s *SubprocessSolver) run(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve: %w: %w", domain.ErrSolverUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	if s.dir != "" {
		cmd.Dir = s.dir
	}
	// Bound the wait for inherited pipes after the process is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("solve: start %q: %w: %w", s.command, domain.ErrSolverUnavailable, err)
	}

	err := cmd.Wait()

	// A cancelled or expired context means we killed it; report the
	// timeout rather than the signal exit status.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("solve: %q did not finish: %w: %w", s.command, domain.ErrSolverUnavailable, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   truncate(stderr.String()),
				Stdout:   truncate(stdout.String()),
			}
		}
		return nil, fmt.Errorf("solve: wait %q: %w: %w", s.command, domain.ErrSolverUnavailable, err)
	}

	return stdout.Bytes(), nil
}

type wireCorral struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Count float64 `json:"count"`
}

type wireRequest struct {
	Corrals map[string]wireCorral `json:"corrals"`
	Depot   string                `json:"depot"`
}

func encodeRequest(req domain.SolverRequest) ([]byte, error) {
	w := wireRequest{Corrals: make(map[string]wireCorral, len(req.Corrals)), Depot: req.Depot}
	for id, c := range req.Corrals {
		w.Corrals[id] = wireCorral{X: c.X, Y: c.Y, Count: c.Count}
	}
	return json.Marshal(w)
}

func decodeResponse(stdout []byte) (domain.RouteResult, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return domain.RouteResult{}, fmt.Errorf("solve: empty output: %w", domain.ErrSolverOutputInvalid)
	}

	var resp response
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&resp); err != nil {
		return domain.RouteResult{}, fmt.Errorf("solve: decode output %q: %w: %w", truncate(string(trimmed)), domain.ErrSolverOutputInvalid, err)
	}
	if dec.More() {
		return domain.RouteResult{}, fmt.Errorf("solve: output must contain only one JSON object: %w", domain.ErrSolverOutputInvalid)
	}
	if resp.Success == nil {
		return domain.RouteResult{}, fmt.Errorf("solve: output missing \"success\": %w", domain.ErrSolverOutputInvalid)
	}
	if resp.TotalDistance < 0 {
		return domain.RouteResult{}, fmt.Errorf("solve: negative totalDistance %v: %w", resp.TotalDistance, domain.ErrSolverOutputInvalid)
	}

	msg := resp.Message
	if msg == "" {
		msg = resp.Error
	}

	route := resp.OptimizedRoute
	if route == nil {
		route = []string{}
	}

	return domain.RouteResult{
		Success:        *resp.Success,
		OptimizedRoute: route,
		TotalDistance:  resp.TotalDistance,
		Method:         resp.Method,
		CorralsCovered: resp.CorralsCovered,
		Note:           resp.Note,
		Message:        msg,
	}, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDiagnosticBytes {
		return s
	}
	return s[:maxDiagnosticBytes] + "...(truncated)"
}
