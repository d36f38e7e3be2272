package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase is the transition a pointer event reports.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseDown
	PhaseMove
	PhaseUp
)

var phaseNames = map[Phase]string{
	PhaseDown: "down",
	PhaseMove: "move",
	PhaseUp:   "up",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePhase converts "down", "move" or "up" (case-insensitive) into a Phase.
func ParsePhase(s string) (Phase, error) {
	for phase, name := range phaseNames {
		if strings.EqualFold(s, name) {
			return phase, nil
		}
	}
	return PhaseUnknown, fmt.Errorf("unknown pointer phase '%s'", s)
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("phase must be a string: %w", err)
	}
	phase, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = phase
	return nil
}

// Point is a single pointer position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent is one touch frame delivered by the platform. Pointers holds
// every pointer in contact, including the one lifting on PhaseUp.
type PointerEvent struct {
	Phase        Phase   `json:"phase"`
	PointerIndex int     `json:"pointerIndex"`
	Pointers     []Point `json:"pointers"`
	TimestampMs  int64   `json:"timestamp"`
}

// ActivePointerCount returns the number of pointers in the frame.
func (e *PointerEvent) ActivePointerCount() int {
	return len(e.Pointers)
}

// LocationSample is a GPS fix. Accuracy is nil when the provider did not
// report one.
type LocationSample struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// HasUsableAccuracy reports whether the fix carries a non-zero accuracy.
func (l LocationSample) HasUsableAccuracy() bool {
	return l.Accuracy != nil && *l.Accuracy != 0
}
