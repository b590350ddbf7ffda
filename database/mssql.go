package database

import (
	"fmt"
	"net/url"
	"strings"
)

// MSSQL is the SQL Server engine. The image bootstraps a single sa login;
// every other credential is provisioned through it once the server answers.
type MSSQL struct{}

// Name implements Engine.
func (MSSQL) Name() string { return "mssql" }

// DefaultImage implements Engine.
func (MSSQL) DefaultImage() string { return "mcr.microsoft.com/mssql/server:2019-latest" }

// ContainerPort implements Engine.
func (MSSQL) ContainerPort() int { return 1433 }

// DefaultAdminUsername implements Engine.
func (MSSQL) DefaultAdminUsername() string { return "sa" }

// DefaultRole implements Engine.
func (MSSQL) DefaultRole() string { return "sysadmin" }

// ContainerEnv accepts the EULA and seeds the sa password.
func (MSSQL) ContainerEnv(admin Credential, database string) []string {
	return []string{
		"ACCEPT_EULA=Y",
		fmt.Sprintf("SA_PASSWORD=%s", admin.Password),
	}
}

// DriverName implements Engine.
func (MSSQL) DriverName() string { return "sqlserver" }

// URL implements Engine.
func (MSSQL) URL(host string, port int, cred Credential, database string) string {
	query := url.Values{}
	query.Add("app name", "sqldock")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cred.Username, cred.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// ProbeStatement implements Engine.
func (MSSQL) ProbeStatement() string { return "SELECT 1" }

// ProvisionStatements creates the database if one is named, then the login,
// then adds it to the server role. Statements are idempotent so a rerun
// against a surviving container does not fail the build.
func (MSSQL) ProvisionStatements(cred Credential, role string, database string) []string {
	if role == "" {
		role = MSSQL{}.DefaultRole()
	}

	stmts := []string{}
	if database != "" {
		stmts = append(stmts, fmt.Sprintf("IF DB_ID(%s) IS NULL CREATE DATABASE %s",
			quoteLiteral(database), quoteMSSQLIdentifier(database)))
	}

	stmts = append(stmts,
		fmt.Sprintf("IF SUSER_ID(%s) IS NULL CREATE LOGIN %s WITH PASSWORD = %s",
			quoteLiteral(cred.Username), quoteMSSQLIdentifier(cred.Username), quoteLiteral(cred.Password)),
		fmt.Sprintf("ALTER SERVER ROLE %s ADD MEMBER %s",
			quoteMSSQLIdentifier(role), quoteMSSQLIdentifier(cred.Username)),
	)
	return stmts
}

// AdminCommand runs stmt through the sqlcmd client the server images ship
// with. -b makes sqlcmd exit non-zero when the statement fails.
func (MSSQL) AdminCommand(admin Credential, stmt string) ([]string, []string) {
	return []string{
		"/opt/mssql-tools/bin/sqlcmd",
		"-S", "localhost",
		"-U", admin.Username,
		"-P", admin.Password,
		"-b",
		"-Q", stmt,
	}, nil
}

func quoteMSSQLIdentifier(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
