package database_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/runtime"

	"github.com/stretchr/testify/assert"
)

type scriptedRuntime struct {
	exitCode int
	output   string
	err      error

	execCmds [][]string
	execEnvs [][]string
}

func (r *scriptedRuntime) Start(ctx context.Context, opts runtime.StartOptions) (*runtime.Handle, error) {
	return nil, errors.New("not used")
}

func (r *scriptedRuntime) Exec(ctx context.Context, handle *runtime.Handle, cmd []string, env []string) (int, string, error) {
	r.execCmds = append(r.execCmds, cmd)
	r.execEnvs = append(r.execEnvs, env)
	return r.exitCode, r.output, r.err
}

func (r *scriptedRuntime) Stop(ctx context.Context, handle *runtime.Handle) error {
	return nil
}

func (r *scriptedRuntime) Remove(ctx context.Context, handle *runtime.Handle) error {
	return nil
}

func Test_ExecAdmin_Probe_Runs_Engine_Probe_In_Container(t *testing.T) {
	rt := &scriptedRuntime{exitCode: 0, output: "1\n"}
	handle := &runtime.Handle{ID: "abc123", Name: "sqldock_test"}
	admin := database.NewExecAdmin(rt, handle, database.Postgres{}, database.Credential{Username: "postgres", Password: "pw"})

	err := admin.Probe(context.Background())
	assert.Nil(t, err)

	assert.Equal(t, 1, len(rt.execCmds))
	assert.Equal(t, []string{"psql", "-U", "postgres", "-v", "ON_ERROR_STOP=1", "-c", "SELECT 1"}, rt.execCmds[0])
	assert.Equal(t, []string{"PGPASSWORD=pw"}, rt.execEnvs[0])
}

func Test_ExecAdmin_Reports_NonZero_Exit_With_Output(t *testing.T) {
	rt := &scriptedRuntime{exitCode: 1, output: "psql: could not connect to server\n"}
	handle := &runtime.Handle{ID: "abc123"}
	admin := database.NewExecAdmin(rt, handle, database.Postgres{}, database.Credential{Username: "postgres", Password: "pw"})

	err := admin.Exec(context.Background(), "SELECT 1")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "statement exited 1")
	assert.Contains(t, err.Error(), "could not connect")
}

func Test_ExecAdmin_Wraps_Runtime_Failure(t *testing.T) {
	rt := &scriptedRuntime{err: errors.New("container not running")}
	handle := &runtime.Handle{ID: "abc123"}
	admin := database.NewExecAdmin(rt, handle, database.MSSQL{}, database.Credential{Username: "sa", Password: "pw"})

	err := admin.Exec(context.Background(), "SELECT 1")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "container not running")
}
