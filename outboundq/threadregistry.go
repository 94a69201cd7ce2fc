package outboundq

import (
	"context"

	"github.com/creachadair/taskgroup"
	"github.com/google/uuid"

	outsync "github.com/tendermint/outboundq/libs/sync"
)

// WorkerID identifies one spawned worker task, minted fresh per send.
type WorkerID = uuid.UUID

// threadRegistry is the §9 thread registry: every spawned worker is
// registered under a fresh WorkerID with the context.CancelFunc that would
// abort it, and deregistered on completion. killAll lets an abnormal
// supervisor exit cancel every live worker; waitAll lets flush/shutdown
// block until every currently-live worker has returned.
//
// The join half is delegated to a taskgroup.Group, which already knows how
// to fan tasks out and block until they're all done; the cancel half needs
// per-worker granularity taskgroup doesn't provide, so it's tracked
// separately here.
type threadRegistry struct {
	mu      outsync.Mutex
	cancels map[WorkerID]context.CancelFunc
	group   *taskgroup.Group
}

func newThreadRegistry() *threadRegistry {
	return &threadRegistry{
		cancels: make(map[WorkerID]context.CancelFunc),
		group:   taskgroup.New(nil),
	}
}

// fork registers a new worker and runs fn in it. fn receives a context
// that killAll cancels; it must return promptly once that context is
// done, though the core never force-cancels a worker during ordinary
// shutdown (only on abnormal supervisor termination, per §5).
func (r *threadRegistry) fork(parent context.Context, fn func(ctx context.Context)) WorkerID {
	id := uuid.New()
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	r.group.Go(func() error {
		defer func() {
			r.mu.Lock()
			delete(r.cancels, id)
			r.mu.Unlock()
			cancel()
		}()
		fn(ctx)
		return nil
	})
	return id
}

// killAll cancels every currently-registered worker's context. It does not
// wait for them to return; pair with waitAll for that.
func (r *threadRegistry) killAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.cancels))
	for _, c := range r.cancels {
		cancels = append(cancels, c)
	}
	r.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// waitAll blocks until every worker forked so far has returned.
func (r *threadRegistry) waitAll() {
	_ = r.group.Wait()
}

// liveCount reports how many workers are currently registered; used by
// dump_state.
func (r *threadRegistry) liveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
