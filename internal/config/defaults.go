package config

import "time"

const (
	// DefaultConcurrency bounds parallel service starts when the config does
	// not say otherwise.
	DefaultConcurrency = 4

	// DefaultPollInterval is the delay between health probes.
	DefaultPollInterval = 2 * time.Second

	// DefaultStartupTimeout is the per-service health deadline. The script
	// this replaces slept a blanket 30 seconds and hoped; services like a
	// connect worker routinely need longer on a cold image cache, so the
	// default is generous and per-service overrides are expected.
	DefaultStartupTimeout = 120 * time.Second
)

// ApplyDefaults fills in zero-valued settings on cfg, including per-service
// startup timeouts and probe types inferred from the probe target.
func ApplyDefaults(cfg *Config) {
	if cfg.Defaults.Concurrency == 0 {
		cfg.Defaults.Concurrency = DefaultConcurrency
	}
	if cfg.Defaults.PollInterval.Duration == 0 {
		cfg.Defaults.PollInterval.Duration = DefaultPollInterval
	}
	if cfg.Defaults.StartupTimeout.Duration == 0 {
		cfg.Defaults.StartupTimeout.Duration = DefaultStartupTimeout
	}

	for i := range cfg.Services {
		svc := &cfg.Services[i]
		if svc.StartupTimeout.Duration == 0 {
			svc.StartupTimeout = cfg.Defaults.StartupTimeout
		}
		if svc.Health.Type == "" {
			if svc.Health.URL != "" {
				svc.Health.Type = ProbeHTTP
			} else if svc.Health.Address != "" {
				svc.Health.Type = ProbeTCP
			}
		}
	}
}
