// Package pipeline integrates a database lifecycle into a CI build step:
// it wraps an external test command in bring-up and teardown, hands the
// command the database coordinates through its environment, and keeps an
// eye on the database while the command runs.
package pipeline

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/syncromatics/sqldock/log"
)

// Group is an errgroup that also listens for OS process signals, so an
// interrupted build step unwinds through the same path as a failed one.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewGroup creates a new Group.
func NewGroup(outerCtx context.Context) *Group {
	ctx, cancel := context.WithCancel(outerCtx)
	group, ctx := errgroup.WithContext(ctx)
	return &Group{
		ctx,
		cancel,
		group,
	}
}

// Context returns the context used by the Group.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Go calls the given function in a new goroutine.
//
// The first call to return a non-nil error cancels the group; its error
// will be returned by Wait.
func (g *Group) Go(f func() error) {
	g.group.Go(f)
}

// Start calls the given function in a new goroutine with the group's
// context.
func (g *Group) Start(f func(context.Context) error) {
	g.group.Go(func() error {
		return f(g.ctx)
	})
}

// Cancel stops the group's context. Wait still waits for every function
// to return.
func (g *Group) Cancel() {
	g.cancel()
}

// Wait blocks until every function has returned or a SIGINT or SIGTERM
// arrives, whichever comes first. A signal cancels the group and Wait
// then waits for the functions to unwind. The first non-nil error from
// the functions is returned.
func (g *Group) Wait() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan error, 1)
	go func() {
		done <- g.group.Wait()
	}()

	select {
	case sig := <-signals:
		log.Debug("caught signal", "signal", sig.String())
		g.cancel()
		return <-done
	case err := <-done:
		return err
	}
}
