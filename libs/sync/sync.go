package sync

import "sync"

// Mutex and RWMutex exist so the rest of this module imports
// "github.com/tendermint/outboundq/libs/sync" uniformly instead of the
// stdlib "sync" package directly; swapping in a deadlock-detecting mutex
// (e.g. github.com/sasha-s/go-deadlock) for debug builds only touches this
// one file.
type Mutex struct {
	sync.Mutex
}

type RWMutex struct {
	sync.RWMutex
}

type WaitGroup struct {
	sync.WaitGroup
}
