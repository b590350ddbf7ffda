// Package dbtest starts throwaway database containers for integration
// tests. Each Setup call brings one container up, waits until the server
// inside answers, and returns an open admin connection; the matching
// Teardown removes the container by name, so it cleans up even when the
// test process that started the container crashed.
package dbtest

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/runtime"
)

// Containers are reached on their own address, so readiness is usually a
// few seconds away. A minute covers a cold image on a busy agent.
const (
	readyAttempts = 60
	readyDelay    = time.Second
)

func setup(engine database.Engine, name string, admin database.Credential, databaseName string) (*sql.DB, *lifecycle.Info, error) {
	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return nil, nil, err
	}

	orch := lifecycle.New(rt, lifecycle.Spec{
		Engine:              engine,
		Name:                name,
		UseContainerAddress: true,
		Pull:                true,
		Admin:               admin,
		Database:            databaseName,
		MaxAttempts:         readyAttempts,
		RetryDelay:          readyDelay,
	})

	info, err := orch.Up(context.Background())
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(engine.DriverName(), info.URL)
	if err != nil {
		teardown(name)
		return nil, nil, errors.Wrap(err, "failed opening connection to test database")
	}

	return db, info, nil
}

func teardown(name string) error {
	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return err
	}
	return lifecycle.TeardownByName(context.Background(), rt, name)
}
