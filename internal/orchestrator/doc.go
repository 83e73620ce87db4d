// Package orchestrator drives one bring-up run: it sequences service starts
// in dependency order with bounded concurrency, gates every start on the
// health of its dependencies, registers the configured CDC connectors once
// sequencing is done, and aggregates everything into the run report.
//
// A run is a one-shot state machine (Init → SequencingServices →
// RegisteringConnectors → Reporting → Done). It never retries itself; a
// failed run is re-invoked externally. Per-service and per-connector
// failures are isolated and recorded in the report; only configuration
// errors, dependency cycles, and cancellation are fatal to the whole run.
package orchestrator
