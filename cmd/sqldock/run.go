package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/syncromatics/sqldock/pipeline"
	"github.com/syncromatics/sqldock/runtime"
)

var runWatchSeconds int

var runCmd = &cobra.Command{
	Use:   "run -- command [args...]",
	Short: "Run a command with a database container around it",
	Long: `Bring the database up, run the command with the coordinates in its
environment (SQLDOCK_URL and friends), and tear the container down
whatever the outcome. The command's exit status decides the step
result; teardown failures are only logged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runWatchSeconds, "watch-seconds", 30, "interval for database health probes while the command runs (0 disables)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
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

	opts := []pipeline.RunnerOption{}
	if runWatchSeconds > 0 {
		opts = append(opts, pipeline.WithDatabaseWatch(time.Duration(runWatchSeconds)*time.Second))
	}

	return pipeline.NewRunner(orch, args, opts...).Run(cmd.Context())
}
