package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"pipectl/internal/config"
	"pipectl/internal/connector"
	"pipectl/internal/health"
	"pipectl/internal/reporting"
	"pipectl/pkg/logging"
)

// Phase is the orchestrator's position in the run state machine.
type Phase string

const (
	PhaseInit                  Phase = "Init"
	PhaseSequencingServices    Phase = "SequencingServices"
	PhaseRegisteringConnectors Phase = "RegisteringConnectors"
	PhaseReporting             Phase = "Reporting"
	PhaseDone                  Phase = "Done"
)

// ErrCancelled marks a run aborted by external cancellation.
var ErrCancelled = errors.New("run cancelled")

// ConnectorRegistrar registers one connector configuration.
type ConnectorRegistrar interface {
	Register(ctx context.Context, cfg config.ConnectorConfig) connector.Result
}

// Orchestrator composes the sequencer, registrar, and reporter into a single
// bring-up run. It owns the configuration for the duration of the run and
// keeps no state across runs.
type Orchestrator struct {
	cfg       config.Config
	sequencer *Sequencer
	registrar ConnectorRegistrar
	phase     Phase
}

// New creates an orchestrator for one run over the given configuration.
func New(cfg config.Config, starter ServiceStarter, registrar ConnectorRegistrar) *Orchestrator {
	checker := health.NewChecker(cfg.Defaults.PollInterval.Duration)
	return &Orchestrator{
		cfg:       cfg,
		sequencer: NewSequencer(starter, checker, cfg.Defaults.Concurrency),
		registrar: registrar,
		phase:     PhaseInit,
	}
}

// Phase returns the current run phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Run executes the bring-up. The returned error is non-nil only for fatal
// conditions (cycles, configuration errors, cancellation); per-service and
// per-connector failures are recorded in the report instead. On cancellation
// the report is still returned so partial outcomes can be shown.
func (o *Orchestrator) Run(ctx context.Context) (reporting.RunReport, error) {
	o.phase = PhaseSequencingServices
	logging.Info("Orchestrator", "bringing up %d services (concurrency %d)", len(o.cfg.Services), o.cfg.Defaults.Concurrency)

	results, err := o.sequencer.BringUp(ctx, o.cfg.Services)
	if err != nil {
		o.phase = PhaseDone
		return reporting.RunReport{}, err
	}

	o.phase = PhaseRegisteringConnectors
	connectorOutcomes := o.registerConnectors(ctx)

	o.phase = PhaseReporting
	serviceOutcomes := make([]reporting.ServiceOutcome, 0, len(o.cfg.Services))
	for _, spec := range o.cfg.Services {
		result := results[spec.Name]
		serviceOutcomes = append(serviceOutcomes, reporting.ServiceOutcome{
			Name:     spec.Name,
			State:    result.State,
			Err:      result.Err,
			Optional: spec.Optional,
			Elapsed:  result.Elapsed,
		})
	}
	report := reporting.BuildReport(serviceOutcomes, connectorOutcomes)

	o.phase = PhaseDone
	if ctx.Err() != nil {
		return report, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
	return report, nil
}

// registerConnectors registers every configured connector in declaration
// order. A cancelled run records Cancelled for the connectors it never
// reached.
func (o *Orchestrator) registerConnectors(ctx context.Context) []reporting.ConnectorOutcome {
	if len(o.cfg.Connectors) == 0 {
		return nil
	}

	outcomes := make([]reporting.ConnectorOutcome, 0, len(o.cfg.Connectors))
	for _, cc := range o.cfg.Connectors {
		var result connector.Result
		if ctx.Err() != nil {
			result = connector.Result{Name: cc.Name, Kind: connector.Cancelled, Err: ctx.Err()}
		} else {
			logging.Info("Orchestrator", "registering connector %s", cc.Name)
			result = o.registrar.Register(ctx, cc)
		}
		outcomes = append(outcomes, reporting.ConnectorOutcome{
			Name:     cc.Name,
			Kind:     result.Kind,
			Err:      result.Err,
			Optional: cc.Optional,
		})
	}
	return outcomes
}

// Plan returns the start order as dependency levels without executing
// anything. Services inside a level have no ordering between them.
func Plan(cfg config.Config) ([][]string, error) {
	levels, err := BuildGraph(cfg.Services).Levels()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(levels))
	for i, level := range levels {
		names := make([]string, len(level))
		for j, id := range level {
			names[j] = string(id)
		}
		out[i] = names
	}
	return out, nil
}
