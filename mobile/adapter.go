// Package mobile feeds golang.org/x/mobile app events into a Shell.
//
// It is a library for an x/mobile host app to embed: the app's app.Main
// event loop passes each event to Adapter.HandleEvent. The rendershell CLI
// drives the Shell over HTTP and WebSocket instead and does not import it.
package mobile

import (
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/types"
	"github.com/mobile-next/rendershell/utils"
)

// Adapter turns per-pointer x/mobile touch events into whole-frame pointer
// events. x/mobile reports each finger on its own; the classifier wants
// every finger in contact on every frame, in the order they went down.
type Adapter struct {
	shell     *shell.Shell
	sequences []touch.Sequence
	positions map[touch.Sequence]types.Point
}

func NewAdapter(s *shell.Shell) *Adapter {
	return &Adapter{
		shell:     s,
		positions: make(map[touch.Sequence]types.Point),
	}
}

// HandleEvent routes one app event. It reports whether the event was of a
// kind the adapter understands.
func (a *Adapter) HandleEvent(e interface{}) bool {
	switch e := e.(type) {
	case touch.Event:
		a.handleTouch(e)
	case size.Event:
		if err := a.shell.SetScreenSize(e.WidthPx, e.HeightPx); err != nil {
			utils.Verbose("ignoring size event: %v", err)
		}
	case lifecycle.Event:
		if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
			a.shell.OnPause()
		}
	default:
		return false
	}
	return true
}

// Active returns the number of pointers currently tracked.
func (a *Adapter) Active() int {
	return len(a.sequences)
}

func (a *Adapter) handleTouch(e touch.Event) {
	p := types.Point{X: float64(e.X), Y: float64(e.Y)}

	switch e.Type {
	case touch.TypeBegin:
		if _, ok := a.positions[e.Sequence]; !ok {
			a.sequences = append(a.sequences, e.Sequence)
		}
		a.positions[e.Sequence] = p
		a.dispatch(types.PhaseDown, e.Sequence)

	case touch.TypeMove:
		if _, ok := a.positions[e.Sequence]; !ok {
			return
		}
		a.positions[e.Sequence] = p
		a.dispatch(types.PhaseMove, e.Sequence)

	case touch.TypeEnd:
		if _, ok := a.positions[e.Sequence]; !ok {
			return
		}
		a.positions[e.Sequence] = p
		a.dispatch(types.PhaseUp, e.Sequence)
		a.forget(e.Sequence)
	}
}

func (a *Adapter) dispatch(phase types.Phase, seq touch.Sequence) {
	ev := &types.PointerEvent{
		Phase:       phase,
		Pointers:    make([]types.Point, len(a.sequences)),
		TimestampMs: a.shell.Now(),
	}
	for i, s := range a.sequences {
		ev.Pointers[i] = a.positions[s]
		if s == seq {
			ev.PointerIndex = i
		}
	}
	a.shell.OnTouch(ev)
}

func (a *Adapter) forget(seq touch.Sequence) {
	delete(a.positions, seq)
	for i, s := range a.sequences {
		if s == seq {
			a.sequences = append(a.sequences[:i], a.sequences[i+1:]...)
			return
		}
	}
}
