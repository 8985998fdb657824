// Package supabase stores the application lists in a Supabase table through
// the PostgREST API.
package supabase

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	table          string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client bound to one key-value table.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey, table string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	if serviceRoleKey == "" {
		serviceRoleKey = apiKey
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		table:          table,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// call runs fn behind the circuit breaker with retries and maps failures
// onto the domain error types.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "supabase"}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "supabase/" + op}
	default:
		return &domain.ErrExternalService{Service: "supabase/" + op, Err: err}
	}
}
