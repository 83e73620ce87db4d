package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pipectl/internal/config"
	"pipectl/internal/dependency"
	"pipectl/internal/health"
	"pipectl/pkg/logging"
)

// ServiceStarter starts one service through the external service manager.
// docker.Manager satisfies it; tests use fakes.
type ServiceStarter interface {
	StartService(ctx context.Context, spec config.ServiceSpec) error
}

// ServiceResult is the terminal outcome of one service, with the time spent
// from start attempt to terminal state.
type ServiceResult struct {
	health.Status
	Elapsed time.Duration
}

// Sequencer brings up a set of services in dependency order. Independent
// services run concurrently, bounded by the concurrency limit; a service
// whose dependency did not reach Healthy is marked Failed without a start
// attempt, and the failure does not block unrelated branches.
type Sequencer struct {
	starter     ServiceStarter
	checker     *health.Checker
	concurrency int
}

// NewSequencer creates a Sequencer.
func NewSequencer(starter ServiceStarter, checker *health.Checker, concurrency int) *Sequencer {
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}
	return &Sequencer{starter: starter, checker: checker, concurrency: concurrency}
}

// BringUp starts all services and waits for each to reach a terminal state.
// It fails fast, before any start attempt, on dependency cycles, unknown
// dependency references, and malformed health probes.
func (s *Sequencer) BringUp(ctx context.Context, specs []config.ServiceSpec) (map[string]ServiceResult, error) {
	graph := BuildGraph(specs)
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	// Construct every prober up front so configuration errors abort the run
	// while nothing has been started yet.
	probers := make(map[string]health.Prober, len(specs))
	for _, spec := range specs {
		prober, err := health.NewProber(spec.Health)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", spec.Name, err)
		}
		probers[spec.Name] = prober
	}

	store := newStatusStore(specs)
	// Per-service completion signals. A dependent blocks on its dependencies'
	// channels instead of polling the store.
	done := make(map[string]chan struct{}, len(specs))
	for _, spec := range specs {
		done[spec.Name] = make(chan struct{})
	}
	// Worker slots for the actual start + health check work. Dependency
	// waiting happens outside a slot so blocked services cannot starve
	// runnable ones.
	slots := make(chan struct{}, s.concurrency)

	var wg sync.WaitGroup
	for _, spec := range specs {
		wg.Add(1)
		go func(spec config.ServiceSpec) {
			defer wg.Done()
			defer close(done[spec.Name])
			s.runService(ctx, spec, probers[spec.Name], store, done, slots)
		}(spec)
	}
	wg.Wait()

	return store.snapshot(), nil
}

// runService waits for the service's dependencies, then starts it and waits
// for health. Exactly this goroutine writes the service's store entry.
func (s *Sequencer) runService(
	ctx context.Context,
	spec config.ServiceSpec,
	prober health.Prober,
	store *statusStore,
	done map[string]chan struct{},
	slots chan struct{},
) {
	for _, dep := range spec.DependsOn {
		select {
		case <-done[dep]:
		case <-ctx.Done():
			store.set(spec.Name, health.Status{Service: spec.Name, State: health.StateCancelled, Err: ctx.Err()}, 0)
			return
		}
	}

	for _, dep := range spec.DependsOn {
		if depStatus := store.get(dep); depStatus.State != health.StateHealthy {
			logging.Warn("Sequencer", "not starting %s: dependency %s is %s", spec.Name, dep, depStatus.State)
			store.set(spec.Name, health.Status{
				Service: spec.Name,
				State:   health.StateFailed,
				Err:     fmt.Errorf("dependency %q is %s", dep, depStatus.State),
			}, 0)
			return
		}
	}

	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		store.set(spec.Name, health.Status{Service: spec.Name, State: health.StateCancelled, Err: ctx.Err()}, 0)
		return
	}
	defer func() { <-slots }()

	logging.Info("Sequencer", "starting %s", spec.Name)
	store.set(spec.Name, health.Status{Service: spec.Name, State: health.StateStarting}, 0)
	begin := time.Now()

	if err := s.starter.StartService(ctx, spec); err != nil {
		state := health.StateFailed
		if ctx.Err() != nil {
			state = health.StateCancelled
		}
		logging.Error("Sequencer", err, "failed to start %s", spec.Name)
		store.set(spec.Name, health.Status{Service: spec.Name, State: state, Err: err}, time.Since(begin))
		return
	}

	status := s.checker.WaitHealthy(ctx, spec.Name, prober, spec.StartupTimeout.Duration)
	store.set(spec.Name, status, time.Since(begin))
}

// BuildGraph constructs the dependency graph for a set of service specs.
func BuildGraph(specs []config.ServiceSpec) *dependency.Graph {
	g := dependency.New()
	for _, spec := range specs {
		deps := make([]dependency.NodeID, 0, len(spec.DependsOn))
		for _, dep := range spec.DependsOn {
			deps = append(deps, dependency.NodeID(dep))
		}
		g.AddNode(dependency.Node{ID: dependency.NodeID(spec.Name), DependsOn: deps})
	}
	return g
}

// statusStore holds per-service results during a run. Each entry is written
// only by the goroutine owning that service; the mutex guards the map itself.
type statusStore struct {
	mu      sync.Mutex
	results map[string]ServiceResult
}

func newStatusStore(specs []config.ServiceSpec) *statusStore {
	results := make(map[string]ServiceResult, len(specs))
	for _, spec := range specs {
		results[spec.Name] = ServiceResult{
			Status: health.Status{Service: spec.Name, State: health.StatePending},
		}
	}
	return &statusStore{results: results}
}

func (s *statusStore) set(name string, status health.Status, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = ServiceResult{Status: status, Elapsed: elapsed}
}

func (s *statusStore) get(name string) health.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[name].Status
}

func (s *statusStore) snapshot() map[string]ServiceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ServiceResult, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}
