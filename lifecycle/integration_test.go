package lifecycle_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/runtime"

	"github.com/stretchr/testify/require"
)

// Needs a reachable Docker daemon. Set SQLDOCK_DOCKER_TESTS to run.
func Test_Orchestrator_Runs_A_Postgres_Lifecycle(t *testing.T) {
	if os.Getenv("SQLDOCK_DOCKER_TESTS") == "" {
		t.Skip("SQLDOCK_DOCKER_TESTS not set")
	}

	rt, err := runtime.NewDockerRuntime()
	require.NoError(t, err)

	spec := lifecycle.Spec{
		Engine:      database.Postgres{},
		Name:        "sqldock_integration",
		Admin:       database.Credential{Password: "integration"},
		Provision:   database.Credential{Username: "ci", Password: "integration_ci"},
		Database:    "apps",
		Pull:        true,
		MaxAttempts: 30,
		RetryDelay:  time.Second,
	}

	orch := lifecycle.New(rt, spec)

	err = orch.Run(context.Background(), func(ctx context.Context, info *lifecycle.Info) error {
		db, err := sql.Open("postgres", info.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = db.ExecContext(ctx, "CREATE TABLE builds (id serial PRIMARY KEY, name text)")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateStopped, orch.State())
}

// Needs a reachable Docker daemon. Set SQLDOCK_DOCKER_TESTS to run.
func Test_Orchestrator_Provisions_Over_The_Exec_Channel(t *testing.T) {
	if os.Getenv("SQLDOCK_DOCKER_TESTS") == "" {
		t.Skip("SQLDOCK_DOCKER_TESTS not set")
	}

	rt, err := runtime.NewDockerRuntime()
	require.NoError(t, err)

	spec := lifecycle.Spec{
		Engine:      database.Postgres{},
		Name:        "sqldock_integration_exec",
		Admin:       database.Credential{Password: "integration"},
		Provision:   database.Credential{Username: "ci_exec", Password: "integration_ci"},
		Database:    "apps",
		Pull:        true,
		MaxAttempts: 30,
		RetryDelay:  time.Second,
	}

	// Readiness and provisioning go through docker exec instead of the
	// published port.
	orch := lifecycle.New(rt, spec, lifecycle.WithExecAdmin())

	err = orch.Run(context.Background(), func(ctx context.Context, info *lifecycle.Info) error {
		db, err := sql.Open("postgres", info.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = db.ExecContext(ctx, "CREATE TABLE deploys (id serial PRIMARY KEY, name text)")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateStopped, orch.State())
}
