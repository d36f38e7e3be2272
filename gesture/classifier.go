package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/mobile-next/rendershell/types"
	"github.com/mobile-next/rendershell/utils"
)

// ErrMalformedEvent is returned for events the classifier refuses to look at.
// State is never mutated when it is returned.
var ErrMalformedEvent = errors.New("malformed pointer event")

// TouchSessionState survives across gestures; double taps span separate
// touch-down events.
type TouchSessionState struct {
	// PointersDown is the pointer count of the last Down or Up event.
	PointersDown int `json:"pointersDown"`
	DoubleTapTimer
}

/*
Classifier turns raw pointer frames into gesture commands.

	tap                           -> MouseDown, MouseUp
	tap and hold, release         -> MouseDown ... MouseUp
	two fingers together          -> Touch2Down
	two fingers, second delayed   -> MouseDown, MouseUp, Touch2Down
	two down, release one         -> Touch2Up, then MouseUp for the other
	two down, lift one, add one   -> Touch2Up, Touch2Down
*/
type Classifier struct {
	state TouchSessionState
}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// State returns a copy of the current session state.
func (c *Classifier) State() TouchSessionState {
	return c.state
}

// ClassifyDown handles a pointer-down frame.
func (c *Classifier) ClassifyDown(ev *types.PointerEvent) ([]types.GestureCommand, error) {
	if err := validate(ev); err != nil {
		return nil, err
	}

	count := ev.ActivePointerCount()
	previous := c.state.PointersDown
	var cmds []types.GestureCommand

	switch {
	case count == 1:
		x0, y0 := pixel(ev.Pointers[0])
		if c.state.Tap(ev.TimestampMs) {
			cmds = append(cmds, types.DoubleClick(1, x0, y0))
		} else {
			cmds = append(cmds, types.MouseDown(1, x0, y0))
		}

	case count == 2 && previous == 1:
		// the first finger was already dispatched as a mouse down, close it
		x0, y0 := pixel(ev.Pointers[0])
		x1, y1 := pixel(ev.Pointers[1])
		cmds = append(cmds, types.MouseUp(1, x0, y0), types.Touch2Down(x0, y0, x1, y1))

	case count == 2:
		x0, y0 := pixel(ev.Pointers[0])
		x1, y1 := pixel(ev.Pointers[1])
		if c.state.Tap(ev.TimestampMs) {
			cmds = append(cmds, types.MenuButton())
		} else {
			cmds = append(cmds, types.Touch2Down(x0, y0, x1, y1))
		}
	}

	c.state.PointersDown = count
	return cmds, nil
}

// ClassifyUp handles a pointer-up frame. The lifting pointer is still part
// of the frame.
func (c *Classifier) ClassifyUp(ev *types.PointerEvent) ([]types.GestureCommand, error) {
	if err := validate(ev); err != nil {
		return nil, err
	}

	count := ev.ActivePointerCount()
	var cmds []types.GestureCommand

	switch count {
	case 1:
		x0, y0 := pixel(ev.Pointers[0])
		cmds = append(cmds, types.MouseUp(1, x0, y0))
	case 2:
		x0, y0 := pixel(ev.Pointers[0])
		x1, y1 := pixel(ev.Pointers[1])
		cmds = append(cmds, types.Touch2Up(x0, y0, x1, y1))
	}

	c.state.PointersDown = count
	return cmds, nil
}

// ClassifyMove handles a pointer-move frame. It never changes PointersDown.
func (c *Classifier) ClassifyMove(ev *types.PointerEvent) ([]types.GestureCommand, error) {
	if err := validate(ev); err != nil {
		return nil, err
	}

	switch ev.ActivePointerCount() {
	case 1:
		x0, y0 := pixel(ev.Pointers[0])
		return []types.GestureCommand{types.MouseMove(x0, y0)}, nil
	case 2:
		x0, y0 := pixel(ev.Pointers[0])
		x1, y1 := pixel(ev.Pointers[1])
		return []types.GestureCommand{types.Touch2Move(x0, y0, x1, y1)}, nil
	}
	return nil, nil
}

// Handle dispatches ev by phase. A bad event, or a panic while classifying,
// is logged and reported as not handled; it never propagates to the caller.
func (c *Classifier) Handle(ev *types.PointerEvent) (cmds []types.GestureCommand, handled bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("touch classification panicked: %v", r)
			cmds = nil
			handled = false
		}
	}()

	if ev == nil {
		utils.Info("touch: null event")
		return nil, false
	}

	var err error
	switch ev.Phase {
	case types.PhaseDown:
		cmds, err = c.ClassifyDown(ev)
	case types.PhaseUp:
		cmds, err = c.ClassifyUp(ev)
	case types.PhaseMove:
		cmds, err = c.ClassifyMove(ev)
	default:
		utils.Info("touch: unhandled phase %d", int(ev.Phase))
		return nil, false
	}

	if err != nil {
		utils.Warn("touch: %v", err)
		return nil, false
	}
	return cmds, true
}

func validate(ev *types.PointerEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if len(ev.Pointers) == 0 {
		return fmt.Errorf("%w: no pointers", ErrMalformedEvent)
	}
	if ev.TimestampMs < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrMalformedEvent, ev.TimestampMs)
	}
	for i, p := range ev.Pointers {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: pointer %d has non-finite position", ErrMalformedEvent, i)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// pixel truncates toward zero; the engine works in integer pixels.
func pixel(p types.Point) (int, int) {
	return int(p.X), int(p.Y)
}
