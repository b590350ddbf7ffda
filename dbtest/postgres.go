package dbtest

import (
	"database/sql"
	"fmt"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
)

// SetupPostgresDatabase starts a postgres container named after the test
// and waits until it answers. The connection belongs to the caller; the
// container belongs to TeardownPostgresDatabase.
func SetupPostgresDatabase(testName string) (*sql.DB, *lifecycle.Info, error) {
	admin := database.Credential{Username: "postgres", Password: "postgres"}
	return setup(database.Postgres{}, postgresContainer(testName), admin, "test")
}

// TeardownPostgresDatabase removes the test's postgres container.
func TeardownPostgresDatabase(testName string) error {
	return teardown(postgresContainer(testName))
}

func postgresContainer(testName string) string {
	return fmt.Sprintf("%s_postgres_db", testName)
}
