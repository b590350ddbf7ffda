package database

import (
	"github.com/golang-migrate/migrate/v4"
	"github.com/pkg/errors"

	// Migration drivers for the engines this package knows how to reach,
	// plus the file source for on-disk migration directories.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlserver"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateUp applies every pending migration in dir against the database the
// URL points at. A database that is already up to date is not an error.
func MigrateUp(dir string, url string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return errors.Wrap(err, "failed connecting to db for migration")
	}
	defer m.Close()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "failed applying migrations")
	}

	return nil
}
