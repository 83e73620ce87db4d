// Package health turns a service's readiness probe into a polled
// wait-until-healthy contract with an explicit timeout, replacing the
// fixed blanket sleeps of the script this tool supersedes.
package health

import (
	"context"
	"time"

	"pipectl/pkg/logging"
)

// State is the terminal or in-flight condition of one service during a run.
type State string

const (
	StatePending   State = "Pending"
	StateStarting  State = "Starting"
	StateHealthy   State = "Healthy"
	StateFailed    State = "Failed"
	StateTimedOut  State = "TimedOut"
	StateCancelled State = "Cancelled"
)

// Terminal reports whether a state is final for the run.
func (s State) Terminal() bool {
	switch s {
	case StateHealthy, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Status is the outcome of health checking one service. Err carries the last
// probe failure for non-Healthy terminal states.
type Status struct {
	Service     string
	State       State
	LastChecked time.Time
	Err         error
}

// Checker polls probes until they report ready.
type Checker struct {
	// Interval is the delay between probes.
	Interval time.Duration
}

// NewChecker creates a Checker polling at the given interval.
func NewChecker(interval time.Duration) *Checker {
	return &Checker{Interval: interval}
}

// WaitHealthy polls prober until it succeeds, timeout elapses, or ctx is
// cancelled. Individual probe failures are recorded but not fatal: only the
// timeout turns them into a TimedOut status carrying the last probe error.
// Cancellation is observed at the next poll boundary.
func (c *Checker) WaitHealthy(ctx context.Context, service string, prober Prober, timeout time.Duration) Status {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var lastErr error
	for {
		err := prober.Probe(ctx)
		checked := time.Now()
		if err == nil {
			logging.Debug("HealthChecker", "service %s is healthy", service)
			return Status{Service: service, State: StateHealthy, LastChecked: checked}
		}
		if ctx.Err() != nil {
			return Status{Service: service, State: StateCancelled, LastChecked: checked, Err: ctx.Err()}
		}
		lastErr = err
		logging.Debug("HealthChecker", "service %s not ready yet: %v", service, err)

		select {
		case <-ctx.Done():
			return Status{Service: service, State: StateCancelled, LastChecked: checked, Err: ctx.Err()}
		case <-deadline.C:
			logging.Warn("HealthChecker", "service %s did not become healthy within %s", service, timeout)
			return Status{Service: service, State: StateTimedOut, LastChecked: checked, Err: lastErr}
		case <-time.After(c.Interval):
		}
	}
}
