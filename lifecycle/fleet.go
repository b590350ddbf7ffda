package lifecycle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/syncromatics/sqldock/log"
	"github.com/syncromatics/sqldock/runtime"
)

// Fleet is one container per parallel test shard. Each member carries its
// own name and its own host port, so every shard owns exactly one
// container nothing else touches.
type Fleet struct {
	members []*Orchestrator
}

// NewFleet derives n orchestrators from spec. Member names get an index
// suffix and every member asks the runtime for its own free host port.
func NewFleet(rt runtime.Runtime, spec Spec, n int, opts ...Option) *Fleet {
	spec.applyDefaults()

	members := make([]*Orchestrator, 0, n)
	for i := 0; i < n; i++ {
		member := spec
		member.Name = fmt.Sprintf("%s_%d", spec.Name, i+1)
		member.HostPort = 0
		members = append(members, New(rt, member, opts...))
	}
	return &Fleet{members: members}
}

// Members returns the fleet's orchestrators in index order.
func (f *Fleet) Members() []*Orchestrator { return f.members }

// Up brings every member up concurrently. When any member fails, the
// members that did start are torn down before the first failure is
// returned.
func (f *Fleet) Up(ctx context.Context) ([]*Info, error) {
	infos := make([]*Info, len(f.members))

	group, gctx := errgroup.WithContext(ctx)
	for i, member := range f.members {
		// Per-goroutine copies: the go directive predates per-iteration
		// loop variables.
		i, member := i, member
		group.Go(func() error {
			info, err := member.Up(gctx)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if downErr := f.Down(context.WithoutCancel(ctx)); downErr != nil {
			log.Warn("fleet cleanup after failed bring-up also failed",
				"error", downErr.Error())
		}
		return nil, err
	}
	return infos, nil
}

// Down tears every member down, each at most once. All members are
// attempted; the first failure is returned.
func (f *Fleet) Down(ctx context.Context) error {
	var failure error
	for _, member := range f.members {
		if err := member.Teardown(ctx); err != nil {
			log.Warn("fleet member teardown failed",
				"container", member.Spec().Name,
				"error", err.Error())
			if failure == nil {
				failure = err
			}
		}
	}
	return failure
}
