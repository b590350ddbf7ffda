package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/log"
)

// Runner wraps one external command in a database lifecycle: bring the
// database up, run the command with the coordinates in its environment,
// tear down whatever the outcome. The command's error is the step result;
// teardown errors are logged, never returned.
type Runner struct {
	orchestrator *lifecycle.Orchestrator
	command      []string

	watchInterval time.Duration

	stdout io.Writer
	stderr io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDatabaseWatch probes the database on the given interval while the
// command runs. A container dying mid-run then cancels the command and
// names the database as the reason.
func WithDatabaseWatch(interval time.Duration) RunnerOption {
	return func(r *Runner) { r.watchInterval = interval }
}

// WithOutput redirects the command's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner returns a Runner that wraps command in orch's lifecycle.
func NewRunner(orch *lifecycle.Orchestrator, command []string, opts ...RunnerOption) *Runner {
	r := &Runner{
		orchestrator: orch,
		command:      command,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the full lifecycle around the command.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.command) == 0 {
		return errors.New("no command to run")
	}

	return r.orchestrator.Run(ctx, r.runStep)
}

func (r *Runner) runStep(ctx context.Context, info *lifecycle.Info) error {
	group := NewGroup(ctx)

	if r.watchInterval > 0 {
		engine, err := database.ForName(info.Engine)
		if err != nil {
			return err
		}

		db, err := sql.Open(engine.DriverName(), info.URL)
		if err != nil {
			return errors.Wrap(err, "failed opening watch connection")
		}
		defer db.Close()

		session := database.NewSessionFromDB(db, engine.ProbeStatement())
		group.Go(WatchDatabase(group.Context(), session, r.watchInterval))
	}

	group.Start(func(cmdCtx context.Context) error {
		defer group.Cancel()
		return r.runCommand(cmdCtx, info)
	})

	return group.Wait()
}

func (r *Runner) runCommand(ctx context.Context, info *lifecycle.Info) error {
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Env = append(os.Environ(), Environ(info)...)

	// The URL carries the password; the build log gets the command only.
	log.Info("running command",
		"command", strings.Join(r.command, " "),
		"container", info.Handle.Name)

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "command failed: %s", r.command[0])
	}
	return nil
}

// Environ is the environment a wrapped command receives to find the
// database.
func Environ(info *lifecycle.Info) []string {
	return []string{
		fmt.Sprintf("SQLDOCK_URL=%s", info.URL),
		fmt.Sprintf("SQLDOCK_ADMIN_URL=%s", info.AdminURL),
		fmt.Sprintf("SQLDOCK_ENGINE=%s", info.Engine),
		fmt.Sprintf("SQLDOCK_CONTAINER=%s", info.Handle.Name),
		fmt.Sprintf("SQLDOCK_HOST=%s", info.Handle.Host),
		fmt.Sprintf("SQLDOCK_PORT=%d", info.Handle.Port),
		fmt.Sprintf("SQLDOCK_USER=%s", info.Cred.Username),
		fmt.Sprintf("SQLDOCK_PASSWORD=%s", info.Cred.Password),
		fmt.Sprintf("SQLDOCK_DATABASE=%s", info.Database),
	}
}
