// Package connector registers CDC connector configurations against a
// connect worker's REST API. Registration is idempotent on the connector
// name: an existing connector with identical configuration is a success,
// one with differing configuration is a conflict that is never overwritten.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-retryablehttp"

	"pipectl/internal/config"
	"pipectl/pkg/logging"
)

// ResultKind classifies the outcome of one registration attempt.
type ResultKind string

const (
	// Registered means the connector was newly created.
	Registered ResultKind = "Registered"
	// AlreadyRegistered means an identical connector already existed.
	AlreadyRegistered ResultKind = "AlreadyRegistered"
	// ConfigConflict means a connector with the same name but different
	// configuration exists. The existing connector is left untouched.
	ConfigConflict ResultKind = "ConfigConflict"
	// RegistrationFailed means the request could not be completed after
	// retries.
	RegistrationFailed ResultKind = "RegistrationFailed"
	// Cancelled means the run was cancelled before this registration ran.
	Cancelled ResultKind = "Cancelled"
)

// Success reports whether the outcome counts as a successful registration.
func (k ResultKind) Success() bool {
	return k == Registered || k == AlreadyRegistered
}

// Result is the outcome of registering one connector.
type Result struct {
	Name string
	Kind ResultKind
	Err  error
}

// Registrar registers connectors over HTTP. Transient failures (connection
// errors, 5xx responses) are retried with bounded exponential backoff by the
// underlying retryable client.
type Registrar struct {
	client *retryablehttp.Client
}

// Option adjusts a Registrar. Tests use it to shrink retry delays.
type Option func(*retryablehttp.Client)

// WithRetryPolicy overrides the attempt count and backoff window.
func WithRetryPolicy(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = maxRetries
		c.RetryWaitMin = waitMin
		c.RetryWaitMax = waitMax
	}
}

// NewRegistrar creates a Registrar with the default retry policy: five
// attempts, exponential backoff from one second capped at sixteen.
func NewRegistrar(opts ...Option) *Registrar {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 16 * time.Second
	client.Logger = nil
	for _, opt := range opts {
		opt(client)
	}
	return &Registrar{client: client}
}

// createRequest is the connect REST payload for creating a connector.
type createRequest struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config"`
}

// Register creates the connector if it does not exist. If it does, the
// current configuration is fetched and compared: identical content reports
// AlreadyRegistered, differing content reports ConfigConflict.
func (r *Registrar) Register(ctx context.Context, cfg config.ConnectorConfig) Result {
	body, err := json.Marshal(createRequest{Name: cfg.Name, Config: cfg.Config})
	if err != nil {
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("encoding connector config: %w", err)}
	}

	url := strings.TrimRight(cfg.Endpoint, "/") + "/connectors"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("building create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Name: cfg.Name, Kind: Cancelled, Err: ctx.Err()}
		}
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("creating connector: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		logging.Info("Registrar", "registered connector %s", cfg.Name)
		return Result{Name: cfg.Name, Kind: Registered}
	case resp.StatusCode == http.StatusConflict:
		return r.reconcileExisting(ctx, cfg)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{
			Name: cfg.Name,
			Kind: RegistrationFailed,
			Err:  fmt.Errorf("create returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}
}

// reconcileExisting decides between AlreadyRegistered and ConfigConflict by
// reading the existing connector's configuration.
func (r *Registrar) reconcileExisting(ctx context.Context, cfg config.ConnectorConfig) Result {
	url := fmt.Sprintf("%s/connectors/%s/config", strings.TrimRight(cfg.Endpoint, "/"), cfg.Name)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("building read request: %w", err)}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Name: cfg.Name, Kind: Cancelled, Err: ctx.Err()}
		}
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("reading existing connector: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{
			Name: cfg.Name,
			Kind: RegistrationFailed,
			Err:  fmt.Errorf("reading existing connector: status %d", resp.StatusCode),
		}
	}

	var existing map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
		return Result{Name: cfg.Name, Kind: RegistrationFailed, Err: fmt.Errorf("decoding existing connector config: %w", err)}
	}
	// Connect echoes the name back as a config key; the declared config does
	// not carry it.
	delete(existing, "name")

	if diff := cmp.Diff(cfg.Config, existing); diff != "" {
		logging.Warn("Registrar", "connector %s exists with different configuration", cfg.Name)
		return Result{
			Name: cfg.Name,
			Kind: ConfigConflict,
			Err:  fmt.Errorf("connector %q exists with different configuration (-declared +existing):\n%s", cfg.Name, diff),
		}
	}

	logging.Info("Registrar", "connector %s already registered with identical configuration", cfg.Name)
	return Result{Name: cfg.Name, Kind: AlreadyRegistered}
}
