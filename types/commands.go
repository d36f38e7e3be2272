package types

import (
	"encoding/json"
)

// CommandKind discriminates the values deposited on the render queue.
type CommandKind string

const (
	KindMouseDown   CommandKind = "mouseDown"
	KindMouseUp     CommandKind = "mouseUp"
	KindMouseMove   CommandKind = "mouseMove"
	KindDoubleClick CommandKind = "doubleClick"
	KindTouch2Down  CommandKind = "touch2Down"
	KindTouch2Up    CommandKind = "touch2Up"
	KindTouch2Move  CommandKind = "touch2Move"
	KindMenuButton  CommandKind = "menuButton"
	KindOrientation CommandKind = "rotationPYR"
	KindLocation    CommandKind = "locationGPS"
	KindClose       CommandKind = "close"
)

// Command is anything the render loop applies to the engine.
type Command interface {
	Kind() CommandKind
}

// GestureCommand is a discrete instruction derived from touch input.
// Single-pointer kinds only use X0/Y0; MenuButton carries no coordinates.
type GestureCommand struct {
	Type   CommandKind `json:"type"`
	Button int         `json:"button,omitempty"`
	X0     int         `json:"x0"`
	Y0     int         `json:"y0"`
	X1     int         `json:"x1"`
	Y1     int         `json:"y1"`
}

func (g GestureCommand) Kind() CommandKind { return g.Type }

// TwoFinger reports whether the command carries a second coordinate pair.
func (g GestureCommand) TwoFinger() bool {
	switch g.Type {
	case KindTouch2Down, KindTouch2Up, KindTouch2Move:
		return true
	}
	return false
}

func MouseDown(button, x, y int) GestureCommand {
	return GestureCommand{Type: KindMouseDown, Button: button, X0: x, Y0: y}
}

func MouseUp(button, x, y int) GestureCommand {
	return GestureCommand{Type: KindMouseUp, Button: button, X0: x, Y0: y}
}

func MouseMove(x, y int) GestureCommand {
	return GestureCommand{Type: KindMouseMove, X0: x, Y0: y}
}

func DoubleClick(button, x, y int) GestureCommand {
	return GestureCommand{Type: KindDoubleClick, Button: button, X0: x, Y0: y}
}

func Touch2Down(x0, y0, x1, y1 int) GestureCommand {
	return GestureCommand{Type: KindTouch2Down, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func Touch2Up(x0, y0, x1, y1 int) GestureCommand {
	return GestureCommand{Type: KindTouch2Up, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func Touch2Move(x0, y0, x1, y1 int) GestureCommand {
	return GestureCommand{Type: KindTouch2Move, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func MenuButton() GestureCommand {
	return GestureCommand{Type: KindMenuButton}
}

// OrientationSample is a screen-orientation-aware rotation in radians.
type OrientationSample struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

func (OrientationSample) Kind() CommandKind { return KindOrientation }

func (o OrientationSample) MarshalJSON() ([]byte, error) {
	type alias OrientationSample
	return json.Marshal(struct {
		Type CommandKind `json:"type"`
		alias
	}{KindOrientation, alias(o)})
}

// LocationCommand forwards an accepted GPS fix to the engine.
type LocationCommand struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (LocationCommand) Kind() CommandKind { return KindLocation }

func (l LocationCommand) MarshalJSON() ([]byte, error) {
	type alias LocationCommand
	return json.Marshal(struct {
		Type CommandKind `json:"type"`
		alias
	}{KindLocation, alias(l)})
}

// CloseCommand asks the engine to release its scene.
type CloseCommand struct{}

func (CloseCommand) Kind() CommandKind { return KindClose }

func (CloseCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]CommandKind{"type": KindClose})
}
