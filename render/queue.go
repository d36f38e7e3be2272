package render

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
	"github.com/mobile-next/rendershell/types"
)

var ErrClosed = errors.New("render queue closed")

// Queue is the hand-off between the input side and the render loop. Any
// number of goroutines may push; exactly one goroutine drains. It is
// unbounded and a push never blocks.
type Queue struct {
	mu              sync.Mutex
	items           *queue.Queue
	renderRequested bool
	closed          bool

	// signal holds at most one pending wake-up for the consumer
	signal chan struct{}
	done   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		items:  queue.New(),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends cmds as one batch; no other producer's commands can land
// between them.
func (q *Queue) Push(cmds ...types.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	for _, cmd := range cmds {
		q.items.Add(cmd)
	}
	q.mu.Unlock()

	q.wake()
	return nil
}

// PushGestures is Push for classifier output.
func (q *Queue) PushGestures(cmds []types.GestureCommand) error {
	batch := make([]types.Command, len(cmds))
	for i, cmd := range cmds {
		batch[i] = cmd
	}
	return q.Push(batch...)
}

// RequestRender marks that a frame should be drawn after the next drain.
func (q *Queue) RequestRender() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.renderRequested = true
	q.mu.Unlock()

	q.wake()
}

// Drain removes every queued command in FIFO order and clears the render
// request flag, returning its previous value.
func (q *Queue) Drain() ([]types.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var cmds []types.Command
	if n := q.items.Length(); n > 0 {
		cmds = make([]types.Command, 0, n)
		for q.items.Length() > 0 {
			cmds = append(cmds, q.items.Remove().(types.Command))
		}
	}

	render := q.renderRequested
	q.renderRequested = false
	return cmds, render
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Signal fires when commands or a render request are pending.
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}

// Done is closed once Close has been called.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Close rejects further pushes. Commands already queued can still be
// drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
