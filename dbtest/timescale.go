package dbtest

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
)

// SetupTimescaleDatabase starts a timescale container named after the
// test, waits until it answers, and installs the timescaledb extension.
func SetupTimescaleDatabase(testName string) (*sql.DB, *lifecycle.Info, error) {
	admin := database.Credential{Username: "postgres", Password: "postgres"}
	db, info, err := setup(database.Timescale{}, timescaleContainer(testName), admin, "test")
	if err != nil {
		return nil, nil, err
	}

	if _, err := db.Exec("create extension if not exists timescaledb cascade"); err != nil {
		db.Close()
		teardown(timescaleContainer(testName))
		return nil, nil, errors.Wrap(err, "failed installing timescaledb extension")
	}

	return db, info, nil
}

// TeardownTimescaleDatabase removes the test's timescale container.
func TeardownTimescaleDatabase(testName string) error {
	return teardown(timescaleContainer(testName))
}

func timescaleContainer(testName string) string {
	return fmt.Sprintf("%s_timescale_db", testName)
}
