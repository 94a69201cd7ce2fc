package outboundq

import (
	"time"

	outsync "github.com/tendermint/outboundq/libs/sync"
)

type failureEntry struct {
	at               time.Time
	reconsiderAfter  time.Duration
}

func (e failureEntry) active(now time.Time) bool {
	return now.Before(e.at.Add(e.reconsiderAfter))
}

// failureTracker is the per-destination cooldown table: a node recorded
// here is excluded from pick_alt's candidates until its cooldown expires.
// Entries linger past expiry until overwritten or cleared; hasRecentFailure
// is what actually consults the expiry, not a background reaper.
type failureTracker struct {
	mu      outsync.Mutex
	entries map[NodeID]failureEntry
	now     func() time.Time
}

func newFailureTracker(now func() time.Time) *failureTracker {
	return &failureTracker{entries: make(map[NodeID]failureEntry), now: now}
}

// record stores a failure against nid with the given cooldown, measured
// from t0 (the time the send started, per the scheduler's "records
// (now_at_start, reconsider_after)" step).
func (f *failureTracker) record(nid NodeID, t0 time.Time, reconsiderAfter time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[nid] = failureEntry{at: t0, reconsiderAfter: reconsiderAfter}
}

// hasRecentFailure reports whether nid is currently in cooldown.
func (f *failureTracker) hasRecentFailure(nid NodeID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[nid]
	if !ok {
		return false
	}
	return e.active(f.now())
}

// clearRecentFailures empties the table, used when an external signal
// (e.g. the transport reconnecting) suggests connectivity has returned.
func (f *failureTracker) clearRecentFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[NodeID]failureEntry)
}

// remove deletes nid's entry, if any — called by update_peers_bucket's
// cleanup when nid vanishes from the peer fold.
func (f *failureTracker) remove(nid NodeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, nid)
}

// size reports the number of entries in the table, expired or not; used by
// dump_state.
func (f *failureTracker) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
