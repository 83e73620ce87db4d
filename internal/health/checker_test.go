package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipectl/internal/config"
)

func newChecker() *Checker {
	return NewChecker(10 * time.Millisecond)
}

func TestWaitHealthySucceedsAfterRetries(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := newChecker().WaitHealthy(context.Background(), "connect", &HTTPProbe{URL: srv.URL}, time.Second)

	assert.Equal(t, StateHealthy, status.State)
	assert.NoError(t, status.Err)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitHealthyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	status := newChecker().WaitHealthy(context.Background(), "connect", &HTTPProbe{URL: srv.URL}, 50*time.Millisecond)

	assert.Equal(t, StateTimedOut, status.State)
	require.Error(t, status.Err)
	assert.Contains(t, status.Err.Error(), "503")
}

func TestWaitHealthyUnreachableEndpoint(t *testing.T) {
	// A closed server refuses connections; those failures are recorded, not
	// fatal, until the timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	status := newChecker().WaitHealthy(context.Background(), "broker", &HTTPProbe{URL: srv.URL}, 50*time.Millisecond)

	assert.Equal(t, StateTimedOut, status.State)
	assert.Error(t, status.Err)
}

func TestWaitHealthyCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	status := newChecker().WaitHealthy(ctx, "broker", &HTTPProbe{URL: srv.URL}, 10*time.Second)

	assert.Equal(t, StateCancelled, status.State)
}

func TestHTTPProbeBodyPredicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer srv.Close()

	probe := &HTTPProbe{URL: srv.URL, BodyContains: `"UP"`}
	assert.NoError(t, probe.Probe(context.Background()))

	probe.BodyContains = `"DOWN"`
	assert.Error(t, probe.Probe(context.Background()))
}

func TestTCPProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	addr := srv.Listener.Addr().String()
	assert.NoError(t, (&TCPProbe{Address: addr}).Probe(context.Background()))

	srv.Close()
	assert.Error(t, (&TCPProbe{Address: addr}).Probe(context.Background()))
}

func TestNewProber(t *testing.T) {
	tests := []struct {
		name    string
		probe   config.HealthProbe
		wantErr bool
	}{
		{
			name:  "http",
			probe: config.HealthProbe{Type: config.ProbeHTTP, URL: "http://localhost:8083/connectors"},
		},
		{
			name:  "tcp",
			probe: config.HealthProbe{Type: config.ProbeTCP, Address: "localhost:9092"},
		},
		{
			name:    "malformed url",
			probe:   config.HealthProbe{Type: config.ProbeHTTP, URL: "not a url"},
			wantErr: true,
		},
		{
			name:    "malformed address",
			probe:   config.HealthProbe{Type: config.ProbeTCP, Address: "no-port"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			probe:   config.HealthProbe{Type: "exec"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProber(tt.probe)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, config.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}
