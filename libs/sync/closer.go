package sync

import "sync"

// Closer is a broadcast close-once signal: any number of goroutines can
// select on Done(), and any number can call Close(), idempotently.
type Closer struct {
	once sync.Once
	ch   chan struct{}
}

func NewCloser() *Closer {
	return &Closer{ch: make(chan struct{})}
}

func (c *Closer) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *Closer) Done() <-chan struct{} {
	return c.ch
}
