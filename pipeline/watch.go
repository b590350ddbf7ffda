package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/syncromatics/sqldock/database"
)

// WatchDatabase probes the database on the given interval for as long as
// ctx lives. The first failed probe is returned, which cancels whatever
// group the watch runs in: a database container that dies mid-run fails
// the step with a reason instead of letting the command run into its
// timeout.
func WatchDatabase(ctx context.Context, admin database.Admin, interval time.Duration) func() error {
	return func() error {
		if err := probe(ctx, admin); err != nil {
			return errors.Wrap(err, "database unreachable at watch start")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := probe(ctx, admin); err != nil {
					return errors.Wrap(err, "database went away during the run")
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// probe treats a cancellation-induced failure as a clean stop; the group
// winding down must not read as the database dying.
func probe(ctx context.Context, admin database.Admin) error {
	err := admin.Probe(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
