package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Drivers for the engines this package knows how to reach. The sqlserver
	// driver must be the microsoft fork: the migrate sqlserver driver loads
	// that fork, and two forks cannot both register the same driver names.
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
)

// Session is an Admin backed by a host-side sql.DB connection to the
// container's published port.
type Session struct {
	db    *sql.DB
	probe string
}

// NewSession opens an admin connection to the server without selecting a
// database. The database may not exist until provisioning runs, so the
// connection must not name one.
func NewSession(engine Engine, host string, port int, admin Credential) (*Session, error) {
	db, err := sql.Open(engine.DriverName(), engine.URL(host, port, admin, ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open admin connection")
	}

	return &Session{db: db, probe: engine.ProbeStatement()}, nil
}

// NewSessionFromDB wraps an already-open connection with the given probe
// statement.
func NewSessionFromDB(db *sql.DB, probe string) *Session {
	return &Session{db: db, probe: probe}
}

// Probe implements Admin.
func (s *Session) Probe(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.probe)
	if err != nil {
		return errors.Wrap(err, "probe failed")
	}

	return nil
}

// Exec implements Admin.
func (s *Session) Exec(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return errors.Wrapf(err, "statement failed: %s", stmt)
	}

	return nil
}

// Close implements Admin.
func (s *Session) Close() error {
	return s.db.Close()
}
