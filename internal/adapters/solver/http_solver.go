package solver

import (
	"bytes"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/obs"
	"cart-route-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// HTTPSolver implements RouteSolver by POSTing the request to a remote
// optimizer that speaks the same JSON contract as the subprocess solver.
// Like SubprocessSolver it makes exactly one attempt per Solve.
//
// The solver is safe for concurrent use.
type HTTPSolver struct {
	session *http.Client
	url     string
	apiKey  string
	cache   ports.RouteCache
}

// NewHTTPSolver targets url. apiKey, when set, is sent as the Authorization
// header. c may be nil.
func NewHTTPSolver(url, apiKey string, c ports.RouteCache) (*HTTPSolver, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("new http solver: url must be non-empty")
	}

	return &HTTPSolver{
		// Per-call deadlines come from ctx; this only caps a stuck connection.
		session: &http.Client{Timeout: 30 * time.Second},
		url:     url,
		apiKey:  apiKey,
		cache:   c,
	}, nil
}

func (h *HTTPSolver) Name() string { return "http:" + h.url }

func (h *HTTPSolver) Solve(ctx context.Context, req domain.SolverRequest) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "solver.http.Solve")(&err)

	payload, err := encodeRequest(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("solve: encode request: %w", err)
	}

	return cached(ctx, h.cache, payload, func() (domain.RouteResult, error) {
		body, err := h.post(ctx, payload)
		if err != nil {
			return domain.RouteResult{}, err
		}
		return decodeResponse(body)
	})
}

func (h *HTTPSolver) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := h.newRequest(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("solve: %w: %w", domain.ErrSolverUnavailable, err)
	}

	resp, err := h.do(req)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) {
			return nil, fmt.Errorf("solve: %w", err)
		}
		return nil, fmt.Errorf("solve: post %s: %w: %w", h.url, domain.ErrSolverUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("solve: read response: %w: %w", domain.ErrSolverUnavailable, err)
	}
	return body, nil
}

func (h *HTTPSolver) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if h.apiKey != "" {
		req.Header.Set("Authorization", h.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := obs.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	return req, nil
}

func (h *HTTPSolver) do(req *http.Request) (*http.Response, error) {
	resp, err := h.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBytes))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// httpStatusError is a non-2xx reply from the remote solver. Overload and
// gateway codes count as unavailable; anything else as a failed solve.
type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (e *httpStatusError) Unwrap() error {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.ErrSolverUnavailable
	default:
		return domain.ErrSolverProcessFailed
	}
}
