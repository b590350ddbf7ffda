package database

// Timescale is the TimescaleDB engine. It speaks the postgres protocol and
// differs only in its image and in installing the extension during
// provisioning.
type Timescale struct {
	Postgres
}

// Name implements Engine.
func (Timescale) Name() string { return "timescale" }

// DefaultImage implements Engine.
func (Timescale) DefaultImage() string { return "docker.io/timescale/timescaledb:1.0.0-pg9.6" }

// ProvisionStatements installs the timescaledb extension after the postgres
// role setup.
func (t Timescale) ProvisionStatements(cred Credential, role string, database string) []string {
	stmts := t.Postgres.ProvisionStatements(cred, role, database)
	return append(stmts, "create extension if not exists timescaledb cascade")
}
