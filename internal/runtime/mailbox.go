package runtime

import "sync"

// mailbox is an unbounded FIFO queue. Pushing never blocks, so effects and navigators
// can deliver from any goroutine, including the update loop itself.
type mailbox[M any] struct {
	mu     sync.Mutex
	queue  []M
	notify chan struct{}
}

func newMailbox[M any]() *mailbox[M] {
	return &mailbox[M]{notify: make(chan struct{}, 1)}
}

func (b *mailbox[M]) push(m M) {
	b.mu.Lock()
	b.queue = append(b.queue, m)
	b.mu.Unlock()
	b.wake()
}

// wake makes a waiting Settle or Run look at the scheduler state again.
func (b *mailbox[M]) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *mailbox[M]) pop() (M, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero M
	if len(b.queue) == 0 {
		return zero, false
	}
	m := b.queue[0]
	b.queue[0] = zero
	b.queue = b.queue[1:]
	return m, true
}

func (b *mailbox[M]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
