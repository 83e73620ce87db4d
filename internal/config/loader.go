package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks errors that make the configuration unusable. Runs
// abort before any start attempt when the loaded config fails validation.
var ErrConfiguration = errors.New("configuration error")

// Load reads, parses, defaults, and validates a pipectl configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration from YAML bytes, applies defaults, and
// validates the result. Unknown fields are rejected so typos surface as
// configuration errors instead of silently ignored settings.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks per-item fields of the configuration. Graph-level checks
// (cycles, unknown dependency names) are the sequencer's responsibility.
func Validate(cfg Config) error {
	if len(cfg.Services) == 0 {
		return fmt.Errorf("%w: no services declared", ErrConfiguration)
	}

	seen := make(map[string]bool, len(cfg.Services))
	for _, svc := range cfg.Services {
		if svc.Name == "" {
			return fmt.Errorf("%w: service with empty name", ErrConfiguration)
		}
		if seen[svc.Name] {
			return fmt.Errorf("%w: duplicate service name %q", ErrConfiguration, svc.Name)
		}
		seen[svc.Name] = true

		if svc.Image == "" {
			return fmt.Errorf("%w: service %q: missing image", ErrConfiguration, svc.Name)
		}
		if err := validateProbe(svc.Name, svc.Health); err != nil {
			return err
		}
		for _, mapping := range append(append([]string{}, svc.Ports...), svc.Volumes...) {
			if !strings.Contains(mapping, ":") {
				return fmt.Errorf("%w: service %q: mapping %q is not host:container", ErrConfiguration, svc.Name, mapping)
			}
		}
	}

	seenConnectors := make(map[string]bool, len(cfg.Connectors))
	for _, conn := range cfg.Connectors {
		if conn.Name == "" {
			return fmt.Errorf("%w: connector with empty name", ErrConfiguration)
		}
		if seenConnectors[conn.Name] {
			return fmt.Errorf("%w: duplicate connector name %q", ErrConfiguration, conn.Name)
		}
		seenConnectors[conn.Name] = true

		if err := validateEndpoint(conn.Name, conn.Endpoint); err != nil {
			return err
		}
		if len(conn.Config) == 0 {
			return fmt.Errorf("%w: connector %q: empty config", ErrConfiguration, conn.Name)
		}
	}

	return nil
}

func validateProbe(service string, probe HealthProbe) error {
	switch probe.Type {
	case ProbeHTTP:
		u, err := url.Parse(probe.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: service %q: malformed health URL %q", ErrConfiguration, service, probe.URL)
		}
	case ProbeTCP:
		if !strings.Contains(probe.Address, ":") {
			return fmt.Errorf("%w: service %q: malformed health address %q", ErrConfiguration, service, probe.Address)
		}
	case "":
		return fmt.Errorf("%w: service %q: no health probe declared", ErrConfiguration, service)
	default:
		return fmt.Errorf("%w: service %q: unknown probe type %q", ErrConfiguration, service, probe.Type)
	}
	return nil
}

func validateEndpoint(connector, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: connector %q: malformed endpoint %q", ErrConfiguration, connector, endpoint)
	}
	return nil
}
