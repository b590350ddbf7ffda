package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syncromatics/sqldock/pipeline"
	"github.com/syncromatics/sqldock/runtime"
)

var (
	upEngine   string
	upImage    string
	upName     string
	upHostPort int
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a database container and wait until it answers",
	Long: `Start the container, poll until the database answers, provision the
configured credential, apply migrations when a directory is configured,
and leave the container running for later build steps. The coordinates
are printed to stdout in KEY=VALUE form for the build to capture.`,
	RunE: runUp,
}

func init() {
	upCmd.Flags().StringVar(&upEngine, "engine", "", "database engine (mssql, postgres, timescale)")
	upCmd.Flags().StringVar(&upImage, "image", "", "container image to run")
	upCmd.Flags().StringVar(&upName, "name", "", "container name")
	upCmd.Flags().IntVar(&upHostPort, "host-port", 0, "host port to publish the database on (0 picks a free one)")
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("engine") {
		cfg.Engine = upEngine
	}
	if cmd.Flags().Changed("image") {
		cfg.Image = upImage
	}
	if cmd.Flags().Changed("name") {
		cfg.ContainerName = upName
	}
	if cmd.Flags().Changed("host-port") {
		cfg.HostPort = upHostPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	spec, err := cfg.Lifecycle()
	if err != nil {
		return err
	}

	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return err
	}

	orch := newOrchestrator(rt, spec, cfg)

	info, err := orch.Up(cmd.Context())
	if err != nil {
		return err
	}

	for _, kv := range pipeline.Environ(info) {
		fmt.Fprintln(cmd.OutOrStdout(), kv)
	}
	return nil
}
