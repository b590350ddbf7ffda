package main

import (
	"github.com/spf13/cobra"

	"github.com/syncromatics/sqldock/config"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/runtime"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sqldock",
	Short: "Transient database containers for CI builds",
	Long: `sqldock brings a database server up in a container, polls it until it
answers, provisions a credential for the build, and tears the container
down when the build step that owns it is finished.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a sqldock.yaml config file")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(runCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

func newOrchestrator(rt runtime.Runtime, spec lifecycle.Spec, cfg config.Config) *lifecycle.Orchestrator {
	if cfg.ExecAdmin {
		return lifecycle.New(rt, spec, lifecycle.WithExecAdmin())
	}
	return lifecycle.New(rt, spec)
}
