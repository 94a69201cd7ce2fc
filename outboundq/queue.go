package outboundq

import (
	"context"
	"time"

	"github.com/tendermint/outboundq/libs/log"
	"github.com/tendermint/outboundq/libs/service"
	outsync "github.com/tendermint/outboundq/libs/sync"
)

// State is a coarse view of the lifecycle facade's state machine: Running
// is steady state, Quiescing is a brief pause while a flush drains the
// worker set, Draining is the terminal equivalent while shutting down, and
// Stopped means the supervisor has returned.
type State int

const (
	Running State = iota
	Quiescing
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Quiescing:
		return "quiescing"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// OutboundQ is the outbound message queue: one instance per node. Buckets
// must not be shared between instances.
type OutboundQ struct {
	*service.BaseService

	selfID NodeID

	enqPolicy  EnqueuePolicy
	deqPolicy  DequeuePolicy
	failPolicy FailurePolicy

	mq       *multiQueue
	inFlight *inFlightTracker
	failures *failureTracker
	sig      *signal
	threads  *threadRegistry

	logger  log.Logger
	metrics *Metrics

	bucketsMu outsync.RWMutex
	buckets   map[string]Peers

	destTypesMu outsync.RWMutex
	destTypes   map[NodeID]NodeType

	stateMu outsync.Mutex
	state   State

	opts QueueOptions

	send SendMsg
}

// Option configures an OutboundQ at construction time.
type Option func(*OutboundQ)

// WithLogger overrides the default no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(q *OutboundQ) { q.logger = logger }
}

// WithMetrics overrides the default no-op metrics.
func WithMetrics(m *Metrics) Option {
	return func(q *OutboundQ) { q.metrics = m }
}

// WithOptions applies a validated QueueOptions. New panics if opts fails
// validation — the same contract the teacher's PeerManagerOptions.Validate
// enforces at construction rather than deferring to first use.
func WithOptions(opts QueueOptions) Option {
	return func(q *OutboundQ) {
		if err := opts.Validate(); err != nil {
			panic(err)
		}
		q.opts = opts
	}
}

// defaultCherishAttempts is the source's hardcoded enqueue_cherished retry
// budget; QueueOptions.CherishAttempts overrides it per instance.
const defaultCherishAttempts = 4

// New builds an empty queue. The dequeue thread is not started; call
// DequeueThread to start it.
func New(selfID NodeID, enqPolicy EnqueuePolicy, deqPolicy DequeuePolicy, failPolicy FailurePolicy, opts ...Option) *OutboundQ {
	q := &OutboundQ{
		selfID:     selfID,
		enqPolicy:  enqPolicy,
		deqPolicy:  deqPolicy,
		failPolicy: failPolicy,
		mq:         newMultiQueue(),
		inFlight:   newInFlightTracker(),
		failures:   newFailureTracker(time.Now),
		sig:        newSignal(),
		threads:    newThreadRegistry(),
		logger:     log.NewNopLogger(),
		metrics:    NopMetrics(),
		buckets:    make(map[string]Peers),
		destTypes:  make(map[NodeID]NodeType),
		state:      Running,
		opts:       QueueOptions{CherishAttempts: defaultCherishAttempts},
	}
	for _, opt := range opts {
		opt(q)
	}
	q.BaseService = service.NewBaseService(q.logger, "OutboundQ", q)
	return q
}

// OnStart satisfies service.Implementation; it launches the supervisor
// loop in its own goroutine so Start returns immediately, per the
// teacher's BaseService contract.
func (q *OutboundQ) OnStart(ctx context.Context) error {
	go q.runDequeueLoop(ctx, q.send)
	return nil
}

// OnStop satisfies service.Implementation. Draining itself happens in
// WaitShutdown, which submits and waits on the Shutdown control message
// before calling BaseService.Stop; by the time Stop (and so OnStop) runs,
// the supervisor has already exited, so there is nothing left to do here.
func (q *OutboundQ) OnStop() {}

func (q *OutboundQ) setState(s State) {
	q.stateMu.Lock()
	q.state = s
	q.stateMu.Unlock()
}

// State reports the current State.
func (q *OutboundQ) State() State {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	return q.state
}

// DequeueThread registers send and starts the supervisor loop. It must be
// invoked exactly once.
func (q *OutboundQ) DequeueThread(ctx context.Context, send SendMsg) error {
	q.send = send
	return q.BaseService.Start(ctx)
}

// bucketValues snapshots the current bucket map's values. Caller must hold
// bucketsMu (read or write).
func (q *OutboundQ) bucketValues() []Peers {
	out := make([]Peers, 0, len(q.buckets))
	for _, p := range q.buckets {
		out = append(out, p)
	}
	return out
}

// UpdatePeersBucket applies f to bucket bucketID's current value under the
// buckets lock, then reclaims every peer that disappeared from the merged
// fold as a result: its scheduled packets, in-flight accounting, and
// failure-table entry are all removed. Each bucket has exactly one writer,
// which is what makes the "a writer adding n then enqueuing to n cannot
// have that message removed by a concurrent writer of a different bucket"
// invariant hold — bucketsMu only serializes the read-modify-write of one
// bucket's value and the fold recomputation, never two buckets' writes
// against each other's content.
// UpdatePeersBucket returns the node ids that disappeared from the merged
// fold as a result of this call, after reclaiming them — a diagnostic
// return value mirroring the teacher's Disconnected/processPeerEvent
// bookkeeping, useful for tests and callers that want to log churn.
func (q *OutboundQ) UpdatePeersBucket(bucketID string, f func(Peers) Peers) []NodeID {
	q.bucketsMu.Lock()
	before := MergeAll(q.bucketValues()...).allIDs()
	q.buckets[bucketID] = f(q.buckets[bucketID])
	merged := MergeAll(q.bucketValues()...)
	after := merged.allIDs()
	q.recomputeDestTypes(merged)
	q.bucketsMu.Unlock()

	var vanished []NodeID
	for nid := range before {
		if _, stillPresent := after[nid]; stillPresent {
			continue
		}
		q.reclaim(nid)
		vanished = append(vanished, nid)
	}
	return NodeIDs(vanished)
}

// recomputeDestTypes rebuilds the nid -> NodeType lookup scheduler.go's
// notBusy uses, from the freshly merged fold. Caller holds bucketsMu.
func (q *OutboundQ) recomputeDestTypes(merged Peers) {
	next := make(map[NodeID]NodeType)
	for _, t := range NodeTypes {
		for _, fs := range merged.PeersOfType(t) {
			for _, nid := range fs {
				next[nid] = t
			}
		}
	}
	q.destTypesMu.Lock()
	q.destTypes = next
	q.destTypesMu.Unlock()
}

// reclaim implements Testable Property 7: after nid vanishes from the
// fold, its scheduled packets, in-flight entry, and failure entry are all
// gone. Packets removed from the multi-queue have their result cells
// cancelled rather than left to hang forever.
func (q *OutboundQ) reclaim(nid NodeID) {
	removed := q.mq.removeAllIn(ByDest(nid))
	for _, p := range removed {
		p.Slot.Cancel()
	}
	if len(removed) > 0 {
		q.metrics.QueueSize.Set(float64(q.mq.totalSize()))
	}
	q.failures.remove(nid)
	q.inFlight.deleteAll(nid)
}

// ClearRecentFailures empties the failure tracker.
func (q *OutboundQ) ClearRecentFailures() {
	q.failures.clearRecentFailures()
}

// Flush submits a Flush control message and blocks until every packet
// enqueued strictly before this call has had its result cell resolved.
func (q *OutboundQ) Flush() {
	q.setState(Quiescing)
	q.sig.submit(FlushCtrl())
}

// WaitShutdown submits a Shutdown control message, blocks until the
// supervisor has drained every worker and entered the Stopped state, then
// marks the service stopped.
func (q *OutboundQ) WaitShutdown() {
	q.setState(Draining)
	q.sig.submit(ShutdownCtrl())
	_ = q.BaseService.Stop()
}
