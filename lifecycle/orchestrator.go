// Package lifecycle drives a transient database container through
// start, wait-until-ready, provision, and teardown for one CI build.
//
// The database gives no readiness signal when it starts inside a
// container, so the orchestrator probes it with a lightweight
// administrative statement under a bounded retry budget. Exhausting the
// budget is an ordinary error for the build to report, never a hang or a
// panic. Teardown runs exactly once per successfully started container,
// on the success and the failure path alike.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/log"
	"github.com/syncromatics/sqldock/runtime"
)

const (
	// DefaultMaxAttempts bounds the readiness poll.
	DefaultMaxAttempts = 20

	// DefaultRetryDelay is slept between readiness attempts.
	DefaultRetryDelay = 15 * time.Second
)

// Spec describes one container lifecycle.
type Spec struct {
	Engine database.Engine

	// Image defaults from the engine. Name defaults to a generated
	// sqldock_ prefix so concurrent builds on one agent cannot collide.
	Image string
	Name  string

	// HostPort is the host side of the port mapping; zero asks for any
	// free port. UseContainerAddress skips publishing entirely and
	// connects to the container's own address.
	HostPort            int
	UseContainerAddress bool

	Isolation runtime.Isolation
	Pull      bool

	// Admin is the administrative credential the image is seeded with.
	// Username defaults from the engine.
	Admin database.Credential

	// Provision is the credential created once the service is ready. An
	// empty username skips provisioning. Role defaults from the engine.
	Provision database.Credential
	Role      string

	// Database names the database to create or grant on, when the engine
	// supports one. Empty leaves the server's default in place.
	Database string

	// MigrationsDir, when set, is applied after provisioning with the
	// provisioned credential.
	MigrationsDir string

	// MaxAttempts and RetryDelay bound the readiness poll. Zero selects
	// the default.
	MaxAttempts int
	RetryDelay  time.Duration
}

func (s *Spec) applyDefaults() {
	if s.Image == "" {
		s.Image = s.Engine.DefaultImage()
	}
	if s.Name == "" {
		s.Name = fmt.Sprintf("sqldock_%s", uuid.New().String()[0:8])
	}
	if s.Admin.Username == "" {
		s.Admin.Username = s.Engine.DefaultAdminUsername()
	}
	if s.Role == "" {
		s.Role = s.Engine.DefaultRole()
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.RetryDelay == 0 {
		s.RetryDelay = DefaultRetryDelay
	}
}

// AdminFactory builds the administrative channel to a started container.
type AdminFactory func(rt runtime.Runtime, handle *runtime.Handle, spec *Spec) (database.Admin, error)

func dialAdmin(rt runtime.Runtime, handle *runtime.Handle, spec *Spec) (database.Admin, error) {
	return database.NewSession(spec.Engine, handle.Host, handle.Port, spec.Admin)
}

func execAdmin(rt runtime.Runtime, handle *runtime.Handle, spec *Spec) (database.Admin, error) {
	return database.NewExecAdmin(rt, handle, spec.Engine, spec.Admin), nil
}

// Orchestrator drives one container through its lifecycle. One build
// execution owns it exclusively; methods must not be called concurrently.
type Orchestrator struct {
	spec    Spec
	runtime runtime.Runtime

	adminFactory AdminFactory

	state  State
	handle *runtime.Handle
	admin  database.Admin
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAdminFactory replaces how the orchestrator reaches the database.
func WithAdminFactory(factory AdminFactory) Option {
	return func(o *Orchestrator) { o.adminFactory = factory }
}

// WithExecAdmin administers the database through its own command line
// client executed inside the container instead of a host-side connection.
// This is the channel to use when the container port is not published.
func WithExecAdmin() Option {
	return func(o *Orchestrator) { o.adminFactory = execAdmin }
}

// New returns an orchestrator for the given spec.
func New(rt runtime.Runtime, spec Spec, opts ...Option) *Orchestrator {
	spec.applyDefaults()

	o := &Orchestrator{
		spec:         spec,
		runtime:      rt,
		adminFactory: dialAdmin,
		state:        StateNotStarted,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Handle returns the running container's handle, nil before Start.
func (o *Orchestrator) Handle() *runtime.Handle { return o.handle }

// Spec returns the spec with defaults applied.
func (o *Orchestrator) Spec() Spec { return o.spec }

func (o *Orchestrator) transition(next State) error {
	if !o.state.canTransitionTo(next) {
		return errors.Errorf("invalid lifecycle transition %s -> %s", o.state, next)
	}

	log.Debug("lifecycle transition",
		"container", o.spec.Name,
		"from", string(o.state),
		"to", string(next))
	o.state = next
	return nil
}

// Start launches the container with the engine's environment. It returns
// as soon as the runtime accepts the container; the service inside is not
// ready to answer yet. A runtime rejection comes back as a *LaunchError
// and leaves nothing to tear down.
func (o *Orchestrator) Start(ctx context.Context) (*runtime.Handle, error) {
	if err := o.transition(StateStarting); err != nil {
		return nil, err
	}

	log.Info("starting database container",
		"container", o.spec.Name,
		"image", o.spec.Image,
		"engine", o.spec.Engine.Name())

	handle, err := o.runtime.Start(ctx, runtime.StartOptions{
		Image:         o.spec.Image,
		Name:          o.spec.Name,
		Env:           o.spec.Engine.ContainerEnv(o.spec.Admin, o.spec.Database),
		ContainerPort: o.spec.Engine.ContainerPort(),
		HostPort:      o.spec.HostPort,
		PublishPort:   !o.spec.UseContainerAddress,
		Isolation:     o.spec.Isolation,
		Pull:          o.spec.Pull,
	})
	if err != nil {
		o.transition(StateLaunchFailed)
		return nil, &LaunchError{Err: err}
	}

	o.handle = handle
	if err := o.transition(StateWaitingReady); err != nil {
		return nil, err
	}
	return handle, nil
}

// WaitUntilReady probes the service until it answers or the attempt
// budget is spent, sleeping RetryDelay between attempts. Startup latency
// of a database inside a fresh container is unbounded in the worst case,
// so every failed attempt is logged with its index and reason for the
// build log. A spent budget comes back as a *ReadinessExhaustedError for
// the caller to surface as a build failure.
func (o *Orchestrator) WaitUntilReady(ctx context.Context) error {
	if o.state != StateWaitingReady {
		return errors.Errorf("cannot wait for readiness in state %s", o.state)
	}

	admin, err := o.adminFactory(o.runtime, o.handle, &o.spec)
	if err != nil {
		o.transition(StateExhausted)
		return &ReadinessExhaustedError{Attempts: 0, LastErr: err}
	}
	o.admin = admin

	var lastErr error
	attempts := 0
	for attempts < o.spec.MaxAttempts {
		if attempts > 0 {
			if err := sleep(ctx, o.spec.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
		attempts++

		lastErr = o.admin.Probe(ctx)
		if lastErr == nil {
			log.Info("database container ready",
				"container", o.spec.Name,
				"attempts", attempts)
			return o.transition(StateReady)
		}

		log.Warn("database not ready yet",
			"container", o.spec.Name,
			"attempt", attempts,
			"maxAttempts", o.spec.MaxAttempts,
			"reason", lastErr.Error())

		if ctx.Err() != nil {
			break
		}
	}

	o.transition(StateExhausted)
	return &ReadinessExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// ProvisionCredential creates the configured login inside the ready
// service and grants it the configured role. It is only legal after
// WaitUntilReady confirmed readiness; the state machine rejects it
// earlier. Statement failure on a ready service is a *ProvisionError, a
// different failure class from readiness exhaustion.
func (o *Orchestrator) ProvisionCredential(ctx context.Context) error {
	if err := o.transition(StateProvisioning); err != nil {
		return err
	}

	if o.spec.Provision.Username == "" {
		o.transition(StateProvisionFailed)
		return &ProvisionError{Err: errors.New("no credential to provision")}
	}

	stmts := o.spec.Engine.ProvisionStatements(o.spec.Provision, o.spec.Role, o.spec.Database)
	for _, stmt := range stmts {
		if err := o.admin.Exec(ctx, stmt); err != nil {
			o.transition(StateProvisionFailed)
			return &ProvisionError{Err: err}
		}
	}

	log.Info("credential provisioned",
		"container", o.spec.Name,
		"username", o.spec.Provision.Username,
		"role", o.spec.Role)

	return o.transition(StateProvisioned)
}

// Teardown stops and removes the container. The second and later calls
// are no-ops, as are calls when nothing was started. A failure comes back
// as a *TeardownError for the caller to log; it never overrides the build
// result that earlier phases determined.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	switch o.state {
	case StateNotStarted, StateStarting, StateLaunchFailed, StateStopped:
		return nil
	}

	if err := o.transition(StateTearingDown); err != nil {
		return err
	}

	if o.admin != nil {
		if err := o.admin.Close(); err != nil {
			log.Warn("failed closing admin channel",
				"container", o.spec.Name,
				"error", err.Error())
		}
		o.admin = nil
	}

	err := stopAndRemove(ctx, o.runtime, o.handle)
	o.transition(StateStopped)
	if err != nil {
		return &TeardownError{Err: err}
	}

	log.Info("database container removed", "container", o.spec.Name)
	return nil
}

// Info is what a test run needs to reach the database.
type Info struct {
	Handle *runtime.Handle
	Engine string

	Admin    database.Credential
	Cred     database.Credential
	Database string

	// URL connects as the provisioned credential, or as the admin when
	// nothing was provisioned. AdminURL always connects as the admin.
	URL      string
	AdminURL string
}

func (o *Orchestrator) info() *Info {
	cred := o.spec.Provision
	if cred.Username == "" {
		cred = o.spec.Admin
	}

	return &Info{
		Handle:   o.handle,
		Engine:   o.spec.Engine.Name(),
		Admin:    o.spec.Admin,
		Cred:     cred,
		Database: o.spec.Database,
		URL:      o.spec.Engine.URL(o.handle.Host, o.handle.Port, cred, o.spec.Database),
		AdminURL: o.spec.Engine.URL(o.handle.Host, o.handle.Port, o.spec.Admin, ""),
	}
}

// Up drives start, readiness, provisioning, and migrations in order. Any
// failure after a successful start tears the container down best-effort
// before the failure is returned. On success the container is left
// running, described by the returned Info.
func (o *Orchestrator) Up(ctx context.Context) (*Info, error) {
	if _, err := o.Start(ctx); err != nil {
		return nil, err
	}

	if err := o.WaitUntilReady(ctx); err != nil {
		o.teardownAfterFailure(ctx)
		return nil, err
	}

	if o.spec.Provision.Username != "" {
		if err := o.ProvisionCredential(ctx); err != nil {
			o.teardownAfterFailure(ctx)
			return nil, err
		}
	}

	if o.spec.MigrationsDir != "" {
		if err := o.migrate(); err != nil {
			o.teardownAfterFailure(ctx)
			return nil, err
		}
	}

	return o.info(), nil
}

// Run wraps fn in a full lifecycle: Up, invoke fn, tear down whatever the
// outcome. The teardown error is logged, never returned; fn's error is
// the result of the run.
func (o *Orchestrator) Run(ctx context.Context, fn func(context.Context, *Info) error) error {
	info, err := o.Up(ctx)
	if err != nil {
		return err
	}

	fnErr := fn(ctx, info)

	// Teardown still runs when fn's context was canceled out from under it.
	if err := o.Teardown(context.WithoutCancel(ctx)); err != nil {
		log.Warn("teardown failed",
			"container", o.spec.Name,
			"error", err.Error())
	}

	return fnErr
}

func (o *Orchestrator) migrate() error {
	cred := o.spec.Provision
	if cred.Username == "" {
		cred = o.spec.Admin
	}
	url := o.spec.Engine.URL(o.handle.Host, o.handle.Port, cred, o.spec.Database)

	log.Info("applying migrations",
		"container", o.spec.Name,
		"directory", o.spec.MigrationsDir)

	if err := database.MigrateUp(o.spec.MigrationsDir, url); err != nil {
		return &ProvisionError{Err: err}
	}
	return nil
}

func (o *Orchestrator) teardownAfterFailure(ctx context.Context) {
	// The failure that got us here may be the context itself; cleanup
	// still has to reach the runtime.
	if err := o.Teardown(context.WithoutCancel(ctx)); err != nil {
		log.Error("cleanup after failed bring-up also failed",
			"container", o.spec.Name,
			"error", err.Error())
	}
}

// TeardownByName stops and removes a container this process did not
// start. Pipelines call it from a cleanup step that runs even when the
// step that started the container was interrupted.
func TeardownByName(ctx context.Context, rt runtime.Runtime, name string) error {
	handle := &runtime.Handle{Name: name}
	if err := stopAndRemove(ctx, rt, handle); err != nil {
		return &TeardownError{Err: err}
	}

	log.Info("database container removed", "container", name)
	return nil
}

// stopAndRemove attempts both operations. A hung stop alone must not
// leave the container behind, so removal is attempted regardless and
// decides the outcome.
func stopAndRemove(ctx context.Context, rt runtime.Runtime, handle *runtime.Handle) error {
	if err := rt.Stop(ctx, handle); err != nil {
		log.Warn("failed stopping container",
			"container", handle.Name,
			"error", err.Error())
	}

	if err := rt.Remove(ctx, handle); err != nil {
		return errors.Wrap(err, "failed removing container")
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
