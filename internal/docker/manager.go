package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"pipectl/internal/config"
	"pipectl/pkg/logging"
)

// Manager starts and stops stack services. The orchestrator only needs this
// surface; a fake implementation backs the tests.
type Manager interface {
	StartService(ctx context.Context, spec config.ServiceSpec) error
	StopService(ctx context.Context, name string) error
}

// ContainerName returns the container name for a stack service.
func ContainerName(service string) string {
	return "pipectl-" + service
}

// DockerManager implements Manager against the Docker daemon.
type DockerManager struct{}

// NewManager creates a Docker-backed service manager.
func NewManager() *DockerManager {
	return &DockerManager{}
}

// StartService creates and starts the service's container. Bring-up is
// idempotent: a container with the right name that is already running is
// adopted, an existing stopped one is restarted.
func (m *DockerManager) StartService(ctx context.Context, spec config.ServiceSpec) error {
	cli, err := Client()
	if err != nil {
		return fmt.Errorf("service %q: docker client: %w", spec.Name, err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("service %q: cannot connect to Docker daemon (is Docker running?): %w", spec.Name, err)
	}

	name := ContainerName(spec.Name)

	inspect, err := cli.ContainerInspect(ctx, name)
	switch {
	case err == nil && inspect.State != nil && inspect.State.Running:
		logging.Info("Docker", "container %s already running, adopting", name)
		return nil
	case err == nil:
		logging.Info("Docker", "container %s exists, starting it", name)
		if err := cli.ContainerStart(ctx, inspect.ID, container.StartOptions{}); err != nil {
			return fmt.Errorf("service %q: start existing container: %w", spec.Name, err)
		}
		return nil
	case !errdefs.IsNotFound(err):
		return fmt.Errorf("service %q: inspect container: %w", spec.Name, err)
	}

	portBindings, exposedPorts, err := buildPortBindings(spec.Ports)
	if err != nil {
		return fmt.Errorf("service %q: %w", spec.Name, err)
	}
	mounts, err := buildMounts(spec.Volumes)
	if err != nil {
		return fmt.Errorf("service %q: %w", spec.Name, err)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          envMapToSlice(spec.Env),
		Cmd:          spec.Command,
		ExposedPorts: exposedPorts,
	}
	hostCfg := &container.HostConfig{
		PortBindings: portBindings,
		Mounts:       mounts,
	}

	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return fmt.Errorf("service %q: create container: %w", spec.Name, err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("service %q: start container: %w", spec.Name, err)
	}

	logging.Info("Docker", "started container %s (image %s)", name, spec.Image)
	return nil
}

// StopService stops and removes the service's container. A missing container
// is not an error so teardown is idempotent too.
func (m *DockerManager) StopService(ctx context.Context, serviceName string) error {
	cli, err := Client()
	if err != nil {
		return fmt.Errorf("service %q: docker client: %w", serviceName, err)
	}

	name := ContainerName(serviceName)
	timeout := 10 // seconds

	if err := cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("service %q: stop container: %w", serviceName, err)
	}
	if err := cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("service %q: remove container: %w", serviceName, err)
	}

	logging.Info("Docker", "stopped container %s", name)
	return nil
}

var _ Manager = (*DockerManager)(nil)

// buildPortBindings creates Docker port bindings from "host:container"
// mapping strings. Bindings listen on 127.0.0.1 only; the stack is a local
// bring-up, not something to expose on all interfaces.
func buildPortBindings(ports []string) (nat.PortMap, nat.PortSet, error) {
	portBindings := make(nat.PortMap)
	exposedPorts := make(nat.PortSet)

	for _, mapping := range ports {
		hostPort, containerPort, ok := strings.Cut(mapping, ":")
		if !ok || hostPort == "" || containerPort == "" {
			return nil, nil, fmt.Errorf("port mapping %q is not host:container", mapping)
		}

		proto := "tcp"
		if cp, p, hasProto := strings.Cut(containerPort, "/"); hasProto {
			containerPort, proto = cp, p
		}

		port := nat.Port(fmt.Sprintf("%s/%s", containerPort, proto))
		exposedPorts[port] = struct{}{}
		portBindings[port] = append(portBindings[port], nat.PortBinding{
			HostIP:   "127.0.0.1",
			HostPort: hostPort,
		})
	}

	return portBindings, exposedPorts, nil
}

// buildMounts converts "host:container" volume strings into bind mounts.
func buildMounts(volumes []string) ([]mount.Mount, error) {
	mounts := make([]mount.Mount, 0, len(volumes))
	for _, v := range volumes {
		src, dst, ok := strings.Cut(v, ":")
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("volume mapping %q is not host:container", v)
		}
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: src,
			Target: dst,
		})
	}
	return mounts, nil
}

// envMapToSlice converts a map of env vars to a slice of "KEY=VALUE" strings.
func envMapToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
