package commands

import (
	"fmt"

	"github.com/mobile-next/rendershell/types"
)

// TouchRequest represents one pointer frame. Timestamp is in milliseconds;
// when omitted the session clock stamps the event.
type TouchRequest struct {
	SessionID    string        `json:"sessionId"`
	Phase        string        `json:"phase"`
	PointerIndex int           `json:"pointerIndex"`
	Pointers     []types.Point `json:"pointers"`
	Timestamp    *int64        `json:"timestamp,omitempty"`
}

// TouchResponse carries the commands a frame produced
type TouchResponse struct {
	Handled  bool                   `json:"handled"`
	Commands []types.GestureCommand `json:"commands"`
}

// ScreenSizeRequest represents the parameters for a screen geometry change
type ScreenSizeRequest struct {
	SessionID string `json:"sessionId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// TouchCommand classifies a pointer frame and queues the resulting commands.
// Frames the classifier rejects are reported as not handled, not as errors.
func TouchCommand(req TouchRequest) *CommandResponse {
	phase, err := types.ParsePhase(req.Phase)
	if err != nil {
		return NewErrorResponse(err)
	}

	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	ev := &types.PointerEvent{
		Phase:        phase,
		PointerIndex: req.PointerIndex,
		Pointers:     req.Pointers,
	}
	if req.Timestamp != nil {
		ev.TimestampMs = *req.Timestamp
	} else {
		ev.TimestampMs = s.Shell.Now()
	}

	cmds, handled := s.Shell.OnTouch(ev)
	if cmds == nil {
		cmds = []types.GestureCommand{}
	}

	return NewSuccessResponse(TouchResponse{
		Handled:  handled,
		Commands: cmds,
	})
}

// ScreenSizeCommand updates the geometry used by orientation mapping
func ScreenSizeCommand(req ScreenSizeRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	if err := s.Shell.SetScreenSize(req.Width, req.Height); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to set screen size: %w", err))
	}

	return NewSuccessResponse(s.Shell.Screen())
}
