package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure for pipectl. It is the
// declarative equivalent of the bring-up script it replaces: the full set of
// services to start, the connectors to register once the stack is up, and
// run-wide defaults.
type Config struct {
	Defaults   RunDefaults       `yaml:"defaults"`
	Services   []ServiceSpec     `yaml:"services"`
	Connectors []ConnectorConfig `yaml:"connectors,omitempty"`
}

// RunDefaults holds run-wide settings applied to services that do not
// override them.
type RunDefaults struct {
	// Concurrency bounds how many service starts/health checks run in
	// parallel. Zero means DefaultConcurrency.
	Concurrency int `yaml:"concurrency,omitempty"`

	// PollInterval is the delay between health probes for a single service.
	PollInterval Duration `yaml:"pollInterval,omitempty"`

	// StartupTimeout is the per-service health deadline for services that do
	// not declare their own.
	StartupTimeout Duration `yaml:"startupTimeout,omitempty"`
}

// ProbeType defines the kind of readiness probe for a service.
type ProbeType string

const (
	// ProbeHTTP issues a GET and requires a 200 response.
	ProbeHTTP ProbeType = "http"
	// ProbeTCP dials the address and requires the connection to succeed.
	ProbeTCP ProbeType = "tcp"
)

// HealthProbe describes how to decide a service is ready to accept work.
type HealthProbe struct {
	Type ProbeType `yaml:"type,omitempty"` // defaults to "http" when URL is set, "tcp" when Address is set

	// URL is the probe target for http probes, e.g. "http://localhost:8083/".
	URL string `yaml:"url,omitempty"`

	// BodyContains optionally requires the response body to contain this
	// substring in addition to the 200 status.
	BodyContains string `yaml:"bodyContains,omitempty"`

	// Address is the "host:port" probe target for tcp probes.
	Address string `yaml:"address,omitempty"`
}

// ServiceSpec declares one service of the stack. Name must be unique within
// the configuration; DependsOn names services that must be Healthy before
// this one is started.
type ServiceSpec struct {
	Name      string   `yaml:"name"`
	Image     string   `yaml:"image"`
	Command   []string `yaml:"command,omitempty"`
	DependsOn []string `yaml:"dependsOn,omitempty"`

	Env     map[string]string `yaml:"env,omitempty"`
	Ports   []string          `yaml:"ports,omitempty"`   // "host:container" mappings
	Volumes []string          `yaml:"volumes,omitempty"` // "host:container" bind mounts

	Health         HealthProbe `yaml:"health"`
	StartupTimeout Duration    `yaml:"startupTimeout,omitempty"`

	// Optional services do not affect the run's overall success flag.
	Optional bool `yaml:"optional,omitempty"`
}

// ConnectorConfig declares one CDC connector to register against a connect
// worker's REST endpoint once the services are up. The connector name is the
// idempotency key: re-registering identical content is a no-op, differing
// content is a conflict.
type ConnectorConfig struct {
	Name     string            `yaml:"name"`
	Endpoint string            `yaml:"endpoint"` // connect REST base URL, e.g. "http://localhost:8083"
	Config   map[string]string `yaml:"config"`
	Optional bool              `yaml:"optional,omitempty"`
}

// Duration wraps time.Duration so YAML values can be written as "30s", "2m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for human-readable durations.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}
