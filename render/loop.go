package render

import (
	"context"
	"sync/atomic"

	"github.com/mobile-next/rendershell/utils"
)

// Loop is the single consumer of a Queue.
type Loop struct {
	queue  *Queue
	engine Engine
	frames atomic.Int64
}

func NewLoop(q *Queue, engine Engine) *Loop {
	return &Loop{queue: q, engine: engine}
}

// Run drains the queue into the engine until ctx is cancelled or the queue
// is closed. Commands still queued at close are applied before returning.
// Engine errors are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.queue.Done():
			l.step()
			return nil
		case <-l.queue.Signal():
			l.step()
		}
	}
}

// Frames is the number of Render calls made so far.
func (l *Loop) Frames() int64 {
	return l.frames.Load()
}

func (l *Loop) step() {
	cmds, render := l.queue.Drain()
	for _, cmd := range cmds {
		if err := l.engine.Apply(cmd); err != nil {
			utils.Warn("engine rejected %s: %v", cmd.Kind(), err)
		}
	}

	if !render {
		return
	}
	if err := l.engine.Render(); err != nil {
		utils.Warn("render failed: %v", err)
		return
	}
	l.frames.Add(1)
}
