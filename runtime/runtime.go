// Package runtime starts, commands, and removes the containers that carry
// transient database servers. The lifecycle orchestrator only ever talks to
// the Runtime interface; the Docker implementation lives here too.
package runtime

import (
	"context"

	"github.com/pkg/errors"
)

// Isolation selects the execution boundary for a container. Windows hosts
// must run a container under hypervisor isolation when the container OS
// version differs from the host's; Linux hosts only accept the default.
type Isolation string

const (
	// IsolationDefault lets the daemon pick its platform default.
	IsolationDefault Isolation = "default"
	// IsolationProcess runs the container as a plain host process.
	IsolationProcess Isolation = "process"
	// IsolationHyperV runs the container inside a hypervisor partition.
	IsolationHyperV Isolation = "hyperv"
)

// ParseIsolation parses an isolation mode from configuration. The empty
// string means default.
func ParseIsolation(s string) (Isolation, error) {
	switch s {
	case "", string(IsolationDefault):
		return IsolationDefault, nil
	case string(IsolationProcess):
		return IsolationProcess, nil
	case string(IsolationHyperV):
		return IsolationHyperV, nil
	}
	return "", errors.Errorf("unknown isolation mode %q", s)
}

// Handle identifies a running container and how to reach the service inside
// it. A handle is owned by exactly one orchestrator for one build.
type Handle struct {
	ID    string
	Name  string
	Image string

	// Host and Port are where the service accepts connections. When the
	// container port is published they are the host side of the mapping;
	// otherwise they are the container's own address and port.
	Host string
	Port int
}

// Ref returns the identifier to address the container by, preferring the
// runtime-assigned ID over the configured name.
func (h *Handle) Ref() string {
	if h.ID != "" {
		return h.ID
	}
	return h.Name
}

// StartOptions describes the container a Start call should produce.
type StartOptions struct {
	Image string
	Name  string
	Env   []string

	// ContainerPort is the port the service listens on inside the
	// container. When PublishPort is set it is mapped to HostPort; a zero
	// HostPort asks the runtime for any free port.
	ContainerPort int
	HostPort      int
	PublishPort   bool

	Isolation Isolation
	Pull      bool
}

// Runtime is the container engine boundary. Start returns as soon as the
// engine accepts the container; it never implies the service inside is
// ready to answer.
type Runtime interface {
	Start(ctx context.Context, opts StartOptions) (*Handle, error)
	Exec(ctx context.Context, handle *Handle, cmd []string, env []string) (int, string, error)
	Stop(ctx context.Context, handle *Handle) error
	Remove(ctx context.Context, handle *Handle) error
}
