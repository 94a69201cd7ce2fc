package sync

// Waker implements a single-bit, idempotent wakeup: any number of
// producers can call Wake(), any number of times, and a consumer blocked
// on Sleep() wakes at least once for each "batch" of wakes that happened
// since it last woke. Wakes that arrive with nobody sleeping are not lost,
// but multiple wakes collapse into a single pending wakeup, matching the
// "pokes are idempotent" contract used by the Signal on top of it.
type Waker struct {
	ch chan struct{}
}

func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake schedules a wakeup. It never blocks.
func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
		// a wakeup is already pending; this one is redundant.
	}
}

// Sleep returns a channel that receives once a wakeup has been scheduled.
func (w *Waker) Sleep() <-chan struct{} {
	return w.ch
}
