package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/log"
	"github.com/syncromatics/sqldock/runtime"
)

var downCmd = &cobra.Command{
	Use:   "down [name]",
	Short: "Stop and remove a database container",
	Long: `Stop and remove the named container. The name comes from the argument,
or from container_name in the config when no argument is given. This is
a cleanup step: teardown failures are logged and the exit code stays
zero, so the result the tests already produced is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDown,
}

func runDown(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	if name == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name = cfg.ContainerName
	}
	if name == "" {
		return errors.New("no container name: pass one or set container_name in the config")
	}

	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		log.Warn("teardown skipped", "container", name, "error", err.Error())
		return nil
	}

	if err := lifecycle.TeardownByName(cmd.Context(), rt, name); err != nil {
		log.Warn("teardown failed", "container", name, "error", err.Error())
	}
	return nil
}
