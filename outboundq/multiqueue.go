package outboundq

import (
	outsync "github.com/tendermint/outboundq/libs/sync"
)

// multiQueue is a mapping from Key to a FIFO of packets, where a single
// packet is indexed under several keys at once (its precedence, its
// destination, and the pair of the two) and is removed from all of them
// together. One mutex protects the whole structure; every operation here
// is linearizable with respect to every other.
type multiQueue struct {
	mu    outsync.Mutex
	byKey map[Key][]*Packet
	size  int
}

func newMultiQueue() *multiQueue {
	return &multiQueue{byKey: make(map[Key][]*Packet)}
}

// enqueue appends p to the FIFO of every key in p's key set. The append
// order across calls is what makes a key's FIFO reflect enqueue order.
func (q *multiQueue) enqueue(p *Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, k := range p.keys {
		q.byKey[k] = append(q.byKey[k], p)
	}
	q.size++
}

// dequeue pops the first packet under key that satisfies pred, scanning
// head-first, and removes it from every key it was indexed under. It
// returns nil if no packet under key satisfies pred; the queue is left
// unchanged in that case.
func (q *multiQueue) dequeue(key Key, pred func(*Packet) bool) *Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	fifo := q.byKey[key]
	idx := -1
	for i, p := range fifo {
		if pred(p) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	picked := fifo[idx]
	q.byKey[key] = append(fifo[:idx:idx], fifo[idx+1:]...)

	for _, k := range picked.keys {
		if k == key {
			continue
		}
		q.removeFromKeyLocked(k, picked)
	}
	q.size--
	return picked
}

// removeFromKeyLocked deletes p from key's FIFO by identity. Caller holds
// q.mu.
func (q *multiQueue) removeFromKeyLocked(key Key, p *Packet) {
	fifo := q.byKey[key]
	for i, cand := range fifo {
		if cand == p {
			q.byKey[key] = append(fifo[:i:i], fifo[i+1:]...)
			return
		}
	}
}

// sizeBy returns the number of packets currently indexed under key.
func (q *multiQueue) sizeBy(key Key) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byKey[key])
}

// totalSize returns the number of distinct packets resident in the queue
// (not the sum across keys, which would triple-count every packet).
func (q *multiQueue) totalSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// removeAllIn removes, from every key, every packet whose key set contains
// key — used by update_peers_bucket to evict a peer that vanished from the
// fold. Returns the removed packets so the caller can cancel their result
// cells.
func (q *multiQueue) removeAllIn(key Key) []*Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	victims := q.byKey[key]
	if len(victims) == 0 {
		return nil
	}
	removed := make([]*Packet, len(victims))
	copy(removed, victims)

	for _, p := range removed {
		for _, k := range p.keys {
			if k == key {
				continue
			}
			q.removeFromKeyLocked(k, p)
		}
	}
	delete(q.byKey, key)
	q.size -= len(removed)
	return removed
}
