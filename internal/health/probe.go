package health

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pipectl/internal/config"
)

// probeRequestTimeout caps a single probe attempt so a hung endpoint cannot
// stall the poll loop past its interval by much.
const probeRequestTimeout = 3 * time.Second

// Prober performs a single readiness probe against a service endpoint.
type Prober interface {
	Probe(ctx context.Context) error
}

// NewProber builds a Prober from a health probe declaration. A malformed
// declaration is a configuration error; callers are expected to construct
// all probers before starting anything so bad config fails the run up front.
func NewProber(probe config.HealthProbe) (Prober, error) {
	switch probe.Type {
	case config.ProbeHTTP:
		u, err := url.Parse(probe.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: malformed health URL %q", config.ErrConfiguration, probe.URL)
		}
		return &HTTPProbe{URL: probe.URL, BodyContains: probe.BodyContains}, nil
	case config.ProbeTCP:
		if !strings.Contains(probe.Address, ":") {
			return nil, fmt.Errorf("%w: malformed health address %q", config.ErrConfiguration, probe.Address)
		}
		return &TCPProbe{Address: probe.Address}, nil
	default:
		return nil, fmt.Errorf("%w: unknown probe type %q", config.ErrConfiguration, probe.Type)
	}
}

// HTTPProbe checks readiness with an HTTP GET. The service is ready when the
// response status is 200 and, if BodyContains is set, the body contains it.
type HTTPProbe struct {
	URL          string
	BodyContains string

	// Client overrides the probe HTTP client; nil uses a default with
	// probeRequestTimeout.
	Client *http.Client
}

func (p *HTTPProbe) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: probeRequestTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	if p.BodyContains != "" {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("reading probe response: %w", err)
		}
		if !strings.Contains(string(body), p.BodyContains) {
			return fmt.Errorf("response body does not contain %q", p.BodyContains)
		}
	}
	return nil
}

// TCPProbe checks readiness by dialing a TCP connection.
type TCPProbe struct {
	Address string
}

func (p *TCPProbe) Probe(ctx context.Context) error {
	d := net.Dialer{Timeout: probeRequestTimeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}
