package ui

import "sync"

// callQueue runs controller calls off the update loop, one at a time and
// in the order they were pushed. Controller methods render back into the
// program, so Update must never call them directly; running each call as
// its own tea.Cmd would lose their order.
type callQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
	wg      sync.WaitGroup
}

func newCallQueue() *callQueue {
	return &callQueue{}
}

// push schedules f without blocking.
func (q *callQueue) push(f func()) {
	q.wg.Add(1)

	q.mu.Lock()
	q.pending = append(q.pending, f)
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

func (q *callQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		f := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		f()
		q.wg.Done()
	}
}

// wait blocks until every pushed call has returned.
func (q *callQueue) wait() {
	q.wg.Wait()
}
