package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Postgres is the PostgreSQL engine.
type Postgres struct{}

// Name implements Engine.
func (Postgres) Name() string { return "postgres" }

// DefaultImage implements Engine.
func (Postgres) DefaultImage() string { return "postgres:10.2" }

// ContainerPort implements Engine.
func (Postgres) ContainerPort() int { return 5432 }

// DefaultAdminUsername implements Engine.
func (Postgres) DefaultAdminUsername() string { return "postgres" }

// DefaultRole implements Engine.
func (Postgres) DefaultRole() string { return "superuser" }

// ContainerEnv seeds the admin role and, when one is named, has the image
// entrypoint create the database during initialization.
func (Postgres) ContainerEnv(admin Credential, database string) []string {
	env := []string{
		fmt.Sprintf("POSTGRES_USER=%s", admin.Username),
		fmt.Sprintf("POSTGRES_PASSWORD=%s", admin.Password),
	}
	if database != "" {
		env = append(env, fmt.Sprintf("POSTGRES_DB=%s", database))
	}
	return env
}

// DriverName implements Engine.
func (Postgres) DriverName() string { return "postgres" }

// URL implements Engine.
func (Postgres) URL(host string, port int, cred Credential, database string) string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cred.Username, cred.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: "sslmode=disable",
	}
	if database != "" {
		u.Path = "/" + database
	}
	return u.String()
}

// ProbeStatement implements Engine.
func (Postgres) ProbeStatement() string { return "SELECT 1" }

// ProvisionStatements creates the role and grants it either the superuser
// attribute (postgres has no grantable superuser role) or membership in the
// named role, plus full access to the database the entrypoint created.
func (Postgres) ProvisionStatements(cred Credential, role string, database string) []string {
	user := quotePostgresIdentifier(cred.Username)

	stmts := []string{
		fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s", user, quoteLiteral(cred.Password)),
	}

	switch role {
	case "", "superuser":
		stmts = append(stmts, fmt.Sprintf("ALTER ROLE %s WITH SUPERUSER", user))
	default:
		stmts = append(stmts, fmt.Sprintf("GRANT %s TO %s", quotePostgresIdentifier(role), user))
	}

	if database != "" {
		stmts = append(stmts, fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s",
			quotePostgresIdentifier(database), user))
	}
	return stmts
}

// AdminCommand runs stmt through psql inside the container.
func (Postgres) AdminCommand(admin Credential, stmt string) ([]string, []string) {
	cmd := []string{
		"psql",
		"-U", admin.Username,
		"-v", "ON_ERROR_STOP=1",
		"-c", stmt,
	}
	env := []string{fmt.Sprintf("PGPASSWORD=%s", admin.Password)}
	return cmd, env
}

func quotePostgresIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
