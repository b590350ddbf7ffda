package dbtest_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syncromatics/sqldock/dbtest"
)

func Test_SetupPostgresDatabase_Provides_A_Working_Connection(t *testing.T) {
	if os.Getenv("SQLDOCK_DOCKER_TESTS") == "" {
		t.Skip("set SQLDOCK_DOCKER_TESTS to run tests that need a docker daemon")
	}

	db, info, err := dbtest.SetupPostgresDatabase("dbtest_pg")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, dbtest.TeardownPostgresDatabase("dbtest_pg"))
	}()
	defer db.Close()

	_, err = db.Exec("CREATE TABLE numbers (n integer)")
	require.NoError(t, err)

	require.Equal(t, "postgres", info.Engine)
	require.Equal(t, "test", info.Database)
	require.Equal(t, "postgres", info.Admin.Username)
}
