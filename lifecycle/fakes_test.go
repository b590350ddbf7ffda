package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/runtime"
)

// opLog records the order of runtime and admin calls across the fakes so
// tests can assert sequencing.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type fakeRuntime struct {
	log *opLog

	rejectIsolation runtime.Isolation
	rejectName      string
	stopErr         error
	removeErr       error

	mu      sync.Mutex
	starts  int
	stops   int
	removes int
	started []runtime.StartOptions
}

func newFakeRuntime(log *opLog) *fakeRuntime {
	return &fakeRuntime{log: log}
}

func (r *fakeRuntime) Start(ctx context.Context, opts runtime.StartOptions) (*runtime.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.add("start")
	if r.rejectIsolation != "" && opts.Isolation == r.rejectIsolation {
		return nil, fmt.Errorf("isolation mode %s not supported on this host", opts.Isolation)
	}
	if r.rejectName != "" && opts.Name == r.rejectName {
		return nil, fmt.Errorf("container name %s rejected", opts.Name)
	}

	r.starts++
	r.started = append(r.started, opts)
	return &runtime.Handle{
		ID:    fmt.Sprintf("id_%d", r.starts),
		Name:  opts.Name,
		Image: opts.Image,
		Host:  "localhost",
		Port:  40000 + r.starts,
	}, nil
}

func (r *fakeRuntime) Exec(ctx context.Context, handle *runtime.Handle, cmd []string, env []string) (int, string, error) {
	r.log.add("runtime-exec")
	return 0, "", nil
}

func (r *fakeRuntime) Stop(ctx context.Context, handle *runtime.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.add("stop")
	r.stops++
	return r.stopErr
}

func (r *fakeRuntime) Remove(ctx context.Context, handle *runtime.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.add("remove")
	r.removes++
	return r.removeErr
}

type fakeAdmin struct {
	log *opLog

	// failuresBeforeReady is how many probes fail before one succeeds.
	failuresBeforeReady int
	execErr             error

	mu     sync.Mutex
	probes int
	execs  []string
	closed int
}

func (a *fakeAdmin) Probe(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.add("probe")
	a.probes++
	if a.probes <= a.failuresBeforeReady {
		return errors.New("connection refused")
	}
	return nil
}

func (a *fakeAdmin) Exec(ctx context.Context, stmt string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.add("exec")
	if a.execErr != nil {
		return a.execErr
	}
	a.execs = append(a.execs, stmt)
	return nil
}

func (a *fakeAdmin) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed++
	return nil
}

func adminFactory(admin database.Admin) lifecycle.AdminFactory {
	return func(rt runtime.Runtime, handle *runtime.Handle, spec *lifecycle.Spec) (database.Admin, error) {
		return admin, nil
	}
}

// adminPool hands every container its own admin, for fleets.
type adminPool struct {
	log *opLog

	mu     sync.Mutex
	admins []*fakeAdmin
}

func (p *adminPool) factory(rt runtime.Runtime, handle *runtime.Handle, spec *lifecycle.Spec) (database.Admin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	admin := &fakeAdmin{log: p.log}
	p.admins = append(p.admins, admin)
	return admin, nil
}
