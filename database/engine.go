// Package database knows how to administer the database servers sqldock
// runs in containers: which environment seeds the administrative
// credential, how to build connection strings, and which statements probe
// readiness and provision test logins.
package database

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Credential is a database login.
type Credential struct {
	Username string
	Password string
}

// Engine describes one kind of database server. The lifecycle orchestrator
// is engine-agnostic; everything server-specific funnels through here.
type Engine interface {
	// Name is the identifier used in configuration.
	Name() string
	// DefaultImage is used when configuration does not name an image.
	DefaultImage() string
	// ContainerPort is the port the service listens on inside the container.
	ContainerPort() int
	// DefaultAdminUsername is the administrative login the image ships with.
	DefaultAdminUsername() string
	// DefaultRole is granted to a provisioned credential when configuration
	// does not name one.
	DefaultRole() string
	// ContainerEnv is the environment that seeds the admin credential into
	// a fresh container.
	ContainerEnv(admin Credential, database string) []string
	// DriverName is the database/sql driver connections are opened with.
	DriverName() string
	// URL builds a connection string for the given address and credential.
	// An empty database connects to the server's default.
	URL(host string, port int, cred Credential, database string) string
	// ProbeStatement is the lightweight command used to detect readiness.
	ProbeStatement() string
	// ProvisionStatements creates a login and grants it a role, creating
	// the named database first when the engine does not create it itself.
	ProvisionStatements(cred Credential, role string, database string) []string
	// AdminCommand is the in-container command line that executes stmt with
	// the given credential, for administering over the exec channel.
	AdminCommand(admin Credential, stmt string) (cmd []string, env []string)
}

// Admin executes administrative statements against a database service. It
// is the only channel the orchestrator talks to a database through, for
// both readiness probes and credential provisioning.
type Admin interface {
	// Probe issues the engine's readiness statement.
	Probe(ctx context.Context) error
	// Exec runs one administrative statement.
	Exec(ctx context.Context, stmt string) error
	// Close releases the channel.
	Close() error
}

// ForName returns the engine registered under the given configuration name.
func ForName(name string) (Engine, error) {
	switch name {
	case "mssql":
		return MSSQL{}, nil
	case "postgres":
		return Postgres{}, nil
	case "timescale":
		return Timescale{}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", name)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
