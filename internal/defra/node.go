package defra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	DefaultImage         = "sourcenetwork/defradb:latest"
	DefaultContainerName = "bestiary-defra"
	DefaultPort          = "9182"
	ContainerPort        = "9181/tcp"
	DataDir              = "/data"
	Label                = "bestiary.defra"

	readyTimeout = 30 * time.Second
)

// ContainerStatus is the lifecycle state of the node container.
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not_found"
	StatusStarting ContainerStatus = "starting"
)

func statusFromState(state string) ContainerStatus {
	switch state {
	case "running":
		return StatusRunning
	case "exited", "dead":
		return StatusStopped
	case "created", "restarting":
		return StatusStarting
	default:
		return ContainerStatus(state)
	}
}

// NodeSpec describes the local DefraDB node holding the monster records.
type NodeSpec struct {
	Name  string
	Image string
	// DataPath is the host directory mounted at DataDir, e.g. ~/.bestiary/defradb.
	DataPath string
	Port     string
	Labels   map[string]string
}

func (s NodeSpec) withDefaults() NodeSpec {
	if s.Name == "" {
		s.Name = DefaultContainerName
	}
	if s.Image == "" {
		s.Image = DefaultImage
	}
	if s.Port == "" {
		s.Port = DefaultPort
	}
	labels := map[string]string{Label: "true"}
	for k, v := range s.Labels {
		labels[k] = v
	}
	s.Labels = labels
	return s
}

// containerInfo is what the node needs to know about an existing container.
type containerInfo struct {
	ID       string
	State    string
	HostPort string
	// Mounts maps container destination to host source.
	Mounts map[string]string
}

// engine is the container runtime the node is managed through.
type engine interface {
	ping(ctx context.Context) error
	find(ctx context.Context, name string) (*containerInfo, error)
	create(ctx context.Context, spec NodeSpec) (string, error)
	start(ctx context.Context, id string) error
	stop(ctx context.Context, id string) error
	remove(ctx context.Context, id string) error
	close() error
}

// Node manages the DefraDB container.
type Node struct {
	engine engine
	spec   NodeSpec
	health *http.Client
}

// NewNode returns a Node driven by the local docker daemon.
func NewNode(spec NodeSpec) (*Node, error) {
	e, err := newDockerEngine()
	if err != nil {
		return nil, err
	}
	return newNode(e, spec), nil
}

func newNode(e engine, spec NodeSpec) *Node {
	return &Node{
		engine: e,
		spec:   spec.withDefaults(),
		health: &http.Client{Timeout: 2 * time.Second},
	}
}

// Close releases the runtime connection.
func (n *Node) Close() error {
	return n.engine.close()
}

// URL returns the node's API URL on the host.
func (n *Node) URL() string {
	return fmt.Sprintf("http://localhost:%s", n.spec.Port)
}

// Client returns a GraphQL client for the node.
func (n *Node) Client() *Client {
	return NewClient(n.URL())
}

// Status reports the container state.
func (n *Node) Status(ctx context.Context) (ContainerStatus, error) {
	info, err := n.engine.find(ctx, n.spec.Name)
	if err != nil {
		return "", err
	}
	if info == nil {
		return StatusNotFound, nil
	}
	return statusFromState(info.State), nil
}

// Start brings the node up, creating the container on first use, and
// returns once the health endpoint answers. An existing container must
// match the configured port and data directory.
func (n *Node) Start(ctx context.Context) error {
	if err := n.engine.ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	info, err := n.engine.find(ctx, n.spec.Name)
	if err != nil {
		return err
	}
	if info == nil {
		return n.create(ctx)
	}
	if err := n.matches(info); err != nil {
		return err
	}

	switch status := statusFromState(info.State); status {
	case StatusRunning, StatusStarting:
	case StatusStopped:
		if err := n.engine.start(ctx, info.ID); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
	return n.WaitReady(ctx, readyTimeout)
}

// Stop stops the container. Data is preserved. No-op when it is not running.
func (n *Node) Stop(ctx context.Context) error {
	info, err := n.engine.find(ctx, n.spec.Name)
	if err != nil {
		return err
	}
	if info == nil || statusFromState(info.State) == StatusStopped {
		return nil
	}
	if err := n.engine.stop(ctx, info.ID); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// WaitReady polls the health endpoint once a second until it answers or
// timeout elapses.
func (n *Node) WaitReady(ctx context.Context, timeout time.Duration) error {
	attempts := uint(timeout / time.Second)
	if attempts == 0 {
		attempts = 1
	}
	url := n.URL() + "/health-check"

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := n.health.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("%w: %s not ready after %s: %v", ErrUnhealthy, n.spec.Name, timeout, err)
	}
	return nil
}

func (n *Node) create(ctx context.Context) error {
	id, err := n.engine.create(ctx, n.spec)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := n.engine.start(ctx, id); err != nil {
		_ = n.engine.remove(ctx, id)
		return fmt.Errorf("failed to start container: %w", err)
	}
	return n.WaitReady(ctx, readyTimeout)
}

// matches rejects a container bound to another port or data directory, so
// records are never written to a store other than the configured one.
func (n *Node) matches(info *containerInfo) error {
	if info.HostPort != n.spec.Port {
		return fmt.Errorf("container %s bound to port %q, expected %s", n.spec.Name, info.HostPort, n.spec.Port)
	}
	if n.spec.DataPath == "" {
		return nil
	}
	src, ok := info.Mounts[DataDir]
	if !ok {
		return fmt.Errorf("container %s has no mount for %s", n.spec.Name, DataDir)
	}
	if src != n.spec.DataPath {
		return fmt.Errorf("container %s mounts %s, expected %s", n.spec.Name, src, n.spec.DataPath)
	}
	return nil
}
