package docker

import (
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerName(t *testing.T) {
	assert.Equal(t, "pipectl-postgres", ContainerName("postgres"))
}

func TestBuildPortBindings(t *testing.T) {
	bindings, exposed, err := buildPortBindings([]string{"5432:5432", "8083:8083/tcp"})
	require.NoError(t, err)

	require.Contains(t, exposed, nat.Port("5432/tcp"))
	require.Contains(t, exposed, nat.Port("8083/tcp"))

	pg := bindings[nat.Port("5432/tcp")]
	require.Len(t, pg, 1)
	assert.Equal(t, "127.0.0.1", pg[0].HostIP)
	assert.Equal(t, "5432", pg[0].HostPort)
}

func TestBuildPortBindingsRejectsMalformed(t *testing.T) {
	for _, mapping := range []string{"5432", ":5432", "5432:"} {
		_, _, err := buildPortBindings([]string{mapping})
		assert.Error(t, err, "mapping %q", mapping)
	}
}

func TestBuildMounts(t *testing.T) {
	mounts, err := buildMounts([]string{"/data/pg:/var/lib/postgresql/data"})
	require.NoError(t, err)
	require.Len(t, mounts, 1)
	assert.Equal(t, "/data/pg", mounts[0].Source)
	assert.Equal(t, "/var/lib/postgresql/data", mounts[0].Target)

	_, err = buildMounts([]string{"/data/pg"})
	assert.Error(t, err)
}

func TestEnvMapToSlice(t *testing.T) {
	env := envMapToSlice(map[string]string{"A": "1"})
	assert.Equal(t, []string{"A=1"}, env)
}
