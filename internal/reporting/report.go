// Package reporting aggregates per-service and per-connector outcomes into
// the run report and renders it for the console.
package reporting

import (
	"time"

	"pipectl/internal/connector"
	"pipectl/internal/health"
)

// ServiceOutcome is the terminal state of one service for the run.
type ServiceOutcome struct {
	Name     string
	State    health.State
	Err      error
	Optional bool
	// Elapsed is the time from start attempt to terminal state.
	Elapsed time.Duration
}

// ConnectorOutcome is the terminal state of one connector registration.
type ConnectorOutcome struct {
	Name     string
	Kind     connector.ResultKind
	Err      error
	Optional bool
}

// RunReport is the immutable summary of one bring-up run.
type RunReport struct {
	Services   []ServiceOutcome
	Connectors []ConnectorOutcome

	// Success is true iff every required service reached Healthy and every
	// required connector registration succeeded or was already registered.
	Success bool
}

// BuildReport aggregates outcomes into a RunReport. Pure: no side effects,
// and the success flag does not depend on the order of the outcomes.
func BuildReport(services []ServiceOutcome, connectors []ConnectorOutcome) RunReport {
	success := true
	for _, svc := range services {
		if svc.Optional {
			continue
		}
		if svc.State != health.StateHealthy {
			success = false
		}
	}
	for _, conn := range connectors {
		if conn.Optional {
			continue
		}
		if !conn.Kind.Success() {
			success = false
		}
	}

	return RunReport{
		Services:   services,
		Connectors: connectors,
		Success:    success,
	}
}

// HasFailures reports whether any service or connector, required or not,
// ended in a non-success state.
func (r RunReport) HasFailures() bool {
	for _, svc := range r.Services {
		if svc.State != health.StateHealthy {
			return true
		}
	}
	for _, conn := range r.Connectors {
		if !conn.Kind.Success() {
			return true
		}
	}
	return false
}

// ExitCode maps the report onto the process exit code for a completed run:
// 0 when everything succeeded, 1 when the run completed with failures.
// Fatal conditions (configuration errors, cycles, cancellation) exit 2 and
// never reach this mapping.
func (r RunReport) ExitCode() int {
	if r.HasFailures() {
		return 1
	}
	return 0
}
