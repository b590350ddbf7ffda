package database

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/runtime"
)

// ExecAdmin is an Admin that drives the engine's own command line client
// inside the container. It needs no published port and no host-side driver,
// which makes it the channel of choice when the container is only reachable
// by its internal address.
type ExecAdmin struct {
	runtime runtime.Runtime
	handle  *runtime.Handle
	engine  Engine
	admin   Credential
}

// NewExecAdmin returns an ExecAdmin for the given container.
func NewExecAdmin(rt runtime.Runtime, handle *runtime.Handle, engine Engine, admin Credential) *ExecAdmin {
	return &ExecAdmin{
		runtime: rt,
		handle:  handle,
		engine:  engine,
		admin:   admin,
	}
}

// Probe implements Admin.
func (a *ExecAdmin) Probe(ctx context.Context) error {
	return a.Exec(ctx, a.engine.ProbeStatement())
}

// Exec implements Admin.
func (a *ExecAdmin) Exec(ctx context.Context, stmt string) error {
	cmd, env := a.engine.AdminCommand(a.admin, stmt)

	exitCode, output, err := a.runtime.Exec(ctx, a.handle, cmd, env)
	if err != nil {
		return errors.Wrap(err, "failed to exec statement")
	}

	if exitCode != 0 {
		return errors.Errorf("statement exited %d: %s", exitCode, strings.TrimSpace(output))
	}

	return nil
}

// Close implements Admin. There is no connection to release.
func (a *ExecAdmin) Close() error {
	return nil
}
