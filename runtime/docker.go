package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	client "docker.io/go-docker"
	"docker.io/go-docker/api/types"
	"docker.io/go-docker/api/types/container"
	"docker.io/go-docker/api/types/network"
	"github.com/docker/go-connections/nat"
	"github.com/phayes/freeport"
	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/log"
)

var (
	// apiVersion pins the engine API level instead of negotiating, so the
	// same build behaves the same on every agent.
	apiVersion = "1.35"

	defaultStopTimeout = 30 * time.Second
)

// DockerRuntime drives containers through a local Docker daemon.
type DockerRuntime struct {
	cli *client.Client

	stopTimeout time.Duration
}

// NewDockerRuntime creates a DockerRuntime from the environment
// (DOCKER_HOST and friends).
func NewDockerRuntime() (*DockerRuntime, error) {
	os.Setenv("DOCKER_API_VERSION", apiVersion)
	cli, err := client.NewEnvClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed creating docker client")
	}

	return &DockerRuntime{
		cli:         cli,
		stopTimeout: defaultStopTimeout,
	}, nil
}

// Start pulls the image if asked, clears any stale container left behind
// under the same name by an earlier build, then creates and starts the
// container. The service inside is not ready when Start returns; callers
// must probe for readiness.
func (r *DockerRuntime) Start(ctx context.Context, opts StartOptions) (*Handle, error) {
	if opts.Pull {
		err := r.pullImage(ctx, opts.Image)
		if err != nil {
			return nil, err
		}
	}

	hostPort := opts.HostPort
	if opts.PublishPort && hostPort == 0 {
		p, err := freeport.GetFreePort()
		if err != nil {
			return nil, errors.Wrap(err, "failed finding a free host port")
		}
		hostPort = p
	}

	config := container.Config{
		Image: opts.Image,
		Env:   opts.Env,
	}
	hostConfig := container.HostConfig{
		Isolation: container.Isolation(opts.Isolation),
	}
	networkConfig := network.NetworkingConfig{}

	if opts.PublishPort {
		port := nat.Port(fmt.Sprintf("%d/tcp", opts.ContainerPort))
		config.ExposedPorts = nat.PortSet{port: struct{}{}}
		hostConfig.PortBindings = nat.PortMap{
			port: []nat.PortBinding{
				{HostPort: fmt.Sprintf("%d/tcp", hostPort)},
			},
		}
	}

	r.removeStale(ctx, opts.Name)

	create, err := r.cli.ContainerCreate(ctx, &config, &hostConfig, &networkConfig, opts.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating container %s", opts.Name)
	}

	err = r.cli.ContainerStart(ctx, create.ID, types.ContainerStartOptions{})
	if err != nil {
		// the caller never owns a container that did not start, so the
		// created one is cleared here
		r.cli.ContainerRemove(ctx, create.ID, types.ContainerRemoveOptions{Force: true})
		return nil, errors.Wrapf(err, "failed starting container %s", opts.Name)
	}

	handle := &Handle{
		ID:    create.ID,
		Name:  opts.Name,
		Image: opts.Image,
	}

	if opts.PublishPort {
		handle.Host = "localhost"
		handle.Port = hostPort
		return handle, nil
	}

	inspect, err := r.cli.ContainerInspect(ctx, create.ID)
	if err != nil {
		r.cli.ContainerRemove(ctx, create.ID, types.ContainerRemoveOptions{Force: true})
		return nil, errors.Wrapf(err, "failed inspecting container %s", opts.Name)
	}

	handle.Host = inspect.NetworkSettings.IPAddress
	handle.Port = opts.ContainerPort
	return handle, nil
}

// Exec runs a command inside the container and returns its exit status and
// combined output.
func (r *DockerRuntime) Exec(ctx context.Context, handle *Handle, cmd []string, env []string) (int, string, error) {
	exec, err := r.cli.ContainerExecCreate(ctx, handle.Ref(), types.ExecConfig{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
	})
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed creating exec in container %s", handle.Name)
	}

	resp, err := r.cli.ContainerExecAttach(ctx, exec.ID, types.ExecConfig{Tty: true})
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed attaching exec in container %s", handle.Name)
	}
	defer resp.Close()

	output, err := io.ReadAll(resp.Reader)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed reading exec output")
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed inspecting exec")
	}

	return inspect.ExitCode, string(output), nil
}

// Stop asks the service inside the container to shut down and waits up to
// the stop timeout before the daemon kills it.
func (r *DockerRuntime) Stop(ctx context.Context, handle *Handle) error {
	timeout := r.stopTimeout
	err := r.cli.ContainerStop(ctx, handle.Ref(), &timeout)
	return errors.Wrapf(err, "failed stopping container %s", handle.Name)
}

// Remove force-removes the container.
func (r *DockerRuntime) Remove(ctx context.Context, handle *Handle) error {
	err := r.cli.ContainerRemove(ctx, handle.Ref(), types.ContainerRemoveOptions{Force: true})
	return errors.Wrapf(err, "failed removing container %s", handle.Name)
}

func (r *DockerRuntime) pullImage(ctx context.Context, image string) error {
	reader, err := r.cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed pulling image %s", image)
	}
	defer reader.Close()

	// the pull is not complete until the progress stream is drained
	_, err = io.ReadAll(reader)
	if err != nil {
		return errors.Wrapf(err, "failed reading pull progress for %s", image)
	}

	return nil
}

func (r *DockerRuntime) removeStale(ctx context.Context, name string) {
	err := r.cli.ContainerRemove(ctx, name, types.ContainerRemoveOptions{Force: true})
	if err == nil {
		log.Debug("removed stale container", "name", name)
	}
}
