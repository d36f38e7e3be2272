package render

import (
	"sync"

	"github.com/mobile-next/rendershell/types"
)

// Engine is the consumer of render commands. Apply and Render are only ever
// called from the render loop goroutine.
type Engine interface {
	Apply(cmd types.Command) error
	Render() error
}

// Recorder is an in-memory engine. It keeps every applied command and counts
// frames, and is safe to inspect from other goroutines.
type Recorder struct {
	mu       sync.Mutex
	commands []types.Command
	frames   int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Apply(cmd types.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *Recorder) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	return nil
}

// Commands returns a copy of everything applied so far.
func (r *Recorder) Commands() []types.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Command(nil), r.commands...)
}

func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
