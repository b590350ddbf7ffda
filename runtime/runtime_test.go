package runtime_test

import (
	"testing"

	"github.com/syncromatics/sqldock/runtime"

	"github.com/stretchr/testify/assert"
)

func Test_ParseIsolation(t *testing.T) {
	cases := []struct {
		input    string
		expected runtime.Isolation
	}{
		{"", runtime.IsolationDefault},
		{"default", runtime.IsolationDefault},
		{"process", runtime.IsolationProcess},
		{"hyperv", runtime.IsolationHyperV},
	}

	for _, c := range cases {
		isolation, err := runtime.ParseIsolation(c.input)
		assert.Nil(t, err)
		assert.Equal(t, c.expected, isolation)
	}
}

func Test_ParseIsolation_Unknown(t *testing.T) {
	_, err := runtime.ParseIsolation("vmware")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown isolation mode")
}

func Test_Handle_Ref_PrefersID(t *testing.T) {
	handle := &runtime.Handle{ID: "4f9c", Name: "build_db"}
	assert.Equal(t, "4f9c", handle.Ref())
}

func Test_Handle_Ref_FallsBackToName(t *testing.T) {
	handle := &runtime.Handle{Name: "build_db"}
	assert.Equal(t, "build_db", handle.Ref())
}
