package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
defaults:
  concurrency: 2
  pollInterval: 500ms
services:
  - name: postgres
    image: postgres:16
    ports: ["5432:5432"]
    env:
      POSTGRES_PASSWORD: postgres
    health:
      type: tcp
      address: localhost:5432
  - name: connect
    image: debezium/connect:2.7
    dependsOn: [postgres]
    startupTimeout: 3m
    health:
      url: http://localhost:8083/connectors
connectors:
  - name: inventory
    endpoint: http://localhost:8083
    config:
      connector.class: io.debezium.connector.postgresql.PostgresConnector
      database.hostname: postgres
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Defaults.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Defaults.PollInterval.Duration)
	// Unset defaults are filled in.
	assert.Equal(t, DefaultStartupTimeout, cfg.Defaults.StartupTimeout.Duration)

	require.Len(t, cfg.Services, 2)
	postgres := cfg.Services[0]
	assert.Equal(t, ProbeTCP, postgres.Health.Type)
	assert.Equal(t, DefaultStartupTimeout, postgres.StartupTimeout.Duration)

	connect := cfg.Services[1]
	assert.Equal(t, []string{"postgres"}, connect.DependsOn)
	// Probe type inferred from the URL field.
	assert.Equal(t, ProbeHTTP, connect.Health.Type)
	assert.Equal(t, 3*time.Minute, connect.StartupTimeout.Duration)

	require.Len(t, cfg.Connectors, 1)
	assert.Equal(t, "inventory", cfg.Connectors[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 2)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no services",
			yaml: `connectors: []`,
		},
		{
			name: "duplicate service name",
			yaml: `
services:
  - name: a
    image: img
    health: {url: "http://localhost:1/"}
  - name: a
    image: img
    health: {url: "http://localhost:2/"}
`,
		},
		{
			name: "missing image",
			yaml: `
services:
  - name: a
    health: {url: "http://localhost:1/"}
`,
		},
		{
			name: "malformed health url",
			yaml: `
services:
  - name: a
    image: img
    health: {url: "not a url"}
`,
		},
		{
			name: "no probe declared",
			yaml: `
services:
  - name: a
    image: img
`,
		},
		{
			name: "bad port mapping",
			yaml: `
services:
  - name: a
    image: img
    ports: ["8080"]
    health: {url: "http://localhost:1/"}
`,
		},
		{
			name: "unknown field",
			yaml: `
services:
  - name: a
    image: img
    halth: {url: "http://localhost:1/"}
`,
		},
		{
			name: "bad duration",
			yaml: `
services:
  - name: a
    image: img
    startupTimeout: thirty seconds
    health: {url: "http://localhost:1/"}
`,
		},
		{
			name: "connector without config",
			yaml: `
services:
  - name: a
    image: img
    health: {url: "http://localhost:1/"}
connectors:
  - name: c
    endpoint: http://localhost:8083
`,
		},
		{
			name: "connector with malformed endpoint",
			yaml: `
services:
  - name: a
    image: img
    health: {url: "http://localhost:1/"}
connectors:
  - name: c
    endpoint: "::::"
    config: {k: v}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
