package database_test

import (
	"testing"

	"github.com/syncromatics/sqldock/database"

	"github.com/stretchr/testify/assert"
)

func Test_ForName_Resolves_Registered_Engines(t *testing.T) {
	for _, name := range []string{"mssql", "postgres", "timescale"} {
		engine, err := database.ForName(name)
		assert.Nil(t, err)
		assert.Equal(t, name, engine.Name())
	}

	_, err := database.ForName("oracle")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown database engine")
}

func Test_MSSQL_URL_Carries_App_Name_And_Database(t *testing.T) {
	engine := database.MSSQL{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	url := engine.URL("localhost", 1433, cred, "")
	assert.Equal(t, "sqlserver://ci:pw@localhost:1433?app+name=sqldock", url)

	url = engine.URL("localhost", 41433, cred, "apps")
	assert.Equal(t, "sqlserver://ci:pw@localhost:41433?app+name=sqldock&database=apps", url)
}

func Test_Postgres_URL_Disables_SSL(t *testing.T) {
	engine := database.Postgres{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	url := engine.URL("localhost", 5432, cred, "")
	assert.Equal(t, "postgres://ci:pw@localhost:5432?sslmode=disable", url)

	url = engine.URL("172.17.0.2", 5432, cred, "apps")
	assert.Equal(t, "postgres://ci:pw@172.17.0.2:5432/apps?sslmode=disable", url)
}

func Test_MSSQL_ContainerEnv_Accepts_EULA(t *testing.T) {
	engine := database.MSSQL{}
	admin := database.Credential{Username: "sa", Password: "pw"}

	env := engine.ContainerEnv(admin, "apps")
	assert.Equal(t, []string{"ACCEPT_EULA=Y", "SA_PASSWORD=pw"}, env)
}

func Test_Postgres_ContainerEnv_Creates_Database(t *testing.T) {
	engine := database.Postgres{}
	admin := database.Credential{Username: "postgres", Password: "pw"}

	env := engine.ContainerEnv(admin, "")
	assert.Equal(t, []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=pw"}, env)

	env = engine.ContainerEnv(admin, "apps")
	assert.Equal(t, []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=pw", "POSTGRES_DB=apps"}, env)
}

func Test_MSSQL_ProvisionStatements_Are_Idempotent(t *testing.T) {
	engine := database.MSSQL{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	stmts := engine.ProvisionStatements(cred, "sysadmin", "apps")
	assert.Equal(t, []string{
		"IF DB_ID('apps') IS NULL CREATE DATABASE [apps]",
		"IF SUSER_ID('ci') IS NULL CREATE LOGIN [ci] WITH PASSWORD = 'pw'",
		"ALTER SERVER ROLE [sysadmin] ADD MEMBER [ci]",
	}, stmts)
}

func Test_MSSQL_ProvisionStatements_Escape_Quotes(t *testing.T) {
	engine := database.MSSQL{}
	cred := database.Credential{Username: "ci", Password: "it's"}

	stmts := engine.ProvisionStatements(cred, "", "")
	assert.Equal(t, []string{
		"IF SUSER_ID('ci') IS NULL CREATE LOGIN [ci] WITH PASSWORD = 'it''s'",
		"ALTER SERVER ROLE [sysadmin] ADD MEMBER [ci]",
	}, stmts)
}

func Test_Postgres_ProvisionStatements_Grant_Superuser_By_Default(t *testing.T) {
	engine := database.Postgres{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	stmts := engine.ProvisionStatements(cred, "superuser", "apps")
	assert.Equal(t, []string{
		`CREATE ROLE "ci" WITH LOGIN PASSWORD 'pw'`,
		`ALTER ROLE "ci" WITH SUPERUSER`,
		`GRANT ALL PRIVILEGES ON DATABASE "apps" TO "ci"`,
	}, stmts)
}

func Test_Postgres_ProvisionStatements_Grant_Named_Role(t *testing.T) {
	engine := database.Postgres{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	stmts := engine.ProvisionStatements(cred, "pg_monitor", "")
	assert.Equal(t, []string{
		`CREATE ROLE "ci" WITH LOGIN PASSWORD 'pw'`,
		`GRANT "pg_monitor" TO "ci"`,
	}, stmts)
}

func Test_Timescale_ProvisionStatements_Install_Extension(t *testing.T) {
	engine := database.Timescale{}
	cred := database.Credential{Username: "ci", Password: "pw"}

	stmts := engine.ProvisionStatements(cred, "superuser", "")
	assert.Equal(t, []string{
		`CREATE ROLE "ci" WITH LOGIN PASSWORD 'pw'`,
		`ALTER ROLE "ci" WITH SUPERUSER`,
		"create extension if not exists timescaledb cascade",
	}, stmts)
}

func Test_MSSQL_AdminCommand_Uses_Sqlcmd(t *testing.T) {
	engine := database.MSSQL{}
	admin := database.Credential{Username: "sa", Password: "pw"}

	cmd, env := engine.AdminCommand(admin, "SELECT 1")
	assert.Equal(t, []string{
		"/opt/mssql-tools/bin/sqlcmd",
		"-S", "localhost",
		"-U", "sa",
		"-P", "pw",
		"-b",
		"-Q", "SELECT 1",
	}, cmd)
	assert.Nil(t, env)
}

func Test_Postgres_AdminCommand_Uses_Psql(t *testing.T) {
	engine := database.Postgres{}
	admin := database.Credential{Username: "postgres", Password: "pw"}

	cmd, env := engine.AdminCommand(admin, "SELECT 1")
	assert.Equal(t, []string{
		"psql",
		"-U", "postgres",
		"-v", "ON_ERROR_STOP=1",
		"-c", "SELECT 1",
	}, cmd)
	assert.Equal(t, []string{"PGPASSWORD=pw"}, env)
}
