// Package config defines pipectl's declarative configuration: the services
// of the stack with their dependency relations and health probes, and the
// CDC connectors to register once the stack is up.
//
// Configuration is loaded from a single YAML file passed to the CLI. Defaults
// are applied on load (concurrency bound, poll interval, per-service startup
// timeout) and the result is validated; a config that fails validation aborts
// the run before any start attempt.
package config
