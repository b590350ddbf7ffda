package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var phased lifecycle.PhaseError
		if errors.As(err, &phased) {
			log.Error("build step failed",
				"phase", string(phased.Phase()),
				"error", err.Error())
		} else {
			log.Error("build step failed", "error", err.Error())
		}
		os.Exit(1)
	}
}
