package defra

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// dockerEngine runs the node on the local docker daemon.
type dockerEngine struct {
	cli *client.Client
}

func newDockerEngine() (*dockerEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &dockerEngine{cli: cli}, nil
}

func (d *dockerEngine) ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return err
}

// find returns nil when no container has exactly name.
func (d *dockerEngine) find(ctx context.Context, name string) (*containerInfo, error) {
	args := filters.NewArgs(filters.Arg("name", name))
	list, err := d.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	// The name filter is a substring match.
	var id, state string
	for _, c := range list {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				id, state = c.ID, c.State
			}
		}
	}
	if id == "" {
		return nil, nil
	}

	inspect, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}

	info := &containerInfo{ID: id, State: state, Mounts: make(map[string]string)}
	if inspect.ContainerJSONBase != nil && inspect.HostConfig != nil {
		if b := inspect.HostConfig.PortBindings[nat.Port(ContainerPort)]; len(b) > 0 {
			info.HostPort = b[0].HostPort
		}
	}
	for _, m := range inspect.Mounts {
		info.Mounts[m.Destination] = m.Source
	}
	return info, nil
}

func (d *dockerEngine) create(ctx context.Context, spec NodeSpec) (string, error) {
	if err := d.pull(ctx, spec.Image); err != nil {
		return "", err
	}

	cfg := &container.Config{
		Image: spec.Image,
		Cmd: []string{
			"start",
			"--no-keyring",
			"--url", "0.0.0.0:9181",
			"--store", "badger",
			"--rootdir", DataDir,
		},
		Labels:       spec.Labels,
		ExposedPorts: nat.PortSet{nat.Port(ContainerPort): struct{}{}},
		Healthcheck: &container.HealthConfig{
			Test:        []string{"CMD", "curl", "-sf", "http://localhost:9181/health-check"},
			Interval:    2 * time.Second,
			Timeout:     5 * time.Second,
			Retries:     10,
			StartPeriod: 5 * time.Second,
		},
	}
	host := &container.HostConfig{
		PortBindings: nat.PortMap{
			nat.Port(ContainerPort): {{HostIP: "127.0.0.1", HostPort: spec.Port}},
		},
	}
	if spec.DataPath != "" {
		host.Mounts = []mount.Mount{{Type: mount.TypeBind, Source: spec.DataPath, Target: DataDir}}
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, host, nil, nil, spec.Name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// pull fetches ref unless it is already present.
func (d *dockerEngine) pull(ctx context.Context, ref string) error {
	if _, err := d.cli.ImageInspect(ctx, ref); err == nil {
		return nil
	}
	r, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer r.Close()
	_, err = io.Copy(io.Discard, r)
	return err
}

func (d *dockerEngine) start(ctx context.Context, id string) error {
	return d.cli.ContainerStart(ctx, id, container.StartOptions{})
}

func (d *dockerEngine) stop(ctx context.Context, id string) error {
	timeout := 10
	return d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (d *dockerEngine) remove(ctx context.Context, id string) error {
	return d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

func (d *dockerEngine) close() error {
	return d.cli.Close()
}
