package dbtest

import (
	"database/sql"
	"fmt"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
)

// saPassword satisfies the server's password policy. It is in the
// returned Info for tests that reconnect on their own.
const saPassword = "yourStrong(!)Password"

// SetupMSSQLDatabase starts a sql server container named after the test
// and waits until it answers. The connection is to the server's default
// database; tests create what they need from there.
func SetupMSSQLDatabase(testName string) (*sql.DB, *lifecycle.Info, error) {
	admin := database.Credential{Username: "sa", Password: saPassword}
	return setup(database.MSSQL{}, mssqlContainer(testName), admin, "")
}

// TeardownMSSQLDatabase removes the test's sql server container.
func TeardownMSSQLDatabase(testName string) error {
	return teardown(mssqlContainer(testName))
}

func mssqlContainer(testName string) string {
	return fmt.Sprintf("%s_mssql_db", testName)
}
