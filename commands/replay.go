package commands

import (
	"context"
	"fmt"

	"github.com/mobile-next/rendershell/render"
	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/types"
)

// ReplayRequest is a recorded touch stream replayed against a fresh shell
type ReplayRequest struct {
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	Events []types.PointerEvent `json:"events"`
}

// ReplayResponse lists what the engine received
type ReplayResponse struct {
	Commands  []types.Command `json:"commands"`
	Frames    int             `json:"frames"`
	Unhandled int             `json:"unhandled"`
}

// ReplayCommand feeds events through the classifier and the render loop
// into an in-memory engine
func ReplayCommand(ctx context.Context, req ReplayRequest) *CommandResponse {
	if req.Width <= 0 || req.Height <= 0 {
		return NewErrorResponse(fmt.Errorf("width and height must be positive, got %dx%d", req.Width, req.Height))
	}

	s := shell.New(types.ScreenSize{Width: req.Width, Height: req.Height})
	recorder := render.NewRecorder()
	loop := render.NewLoop(s.Queue(), recorder)

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	unhandled := 0
	for i := range req.Events {
		if _, handled := s.OnTouch(&req.Events[i]); !handled {
			unhandled++
		}
	}

	if err := s.Close(); err != nil {
		return NewErrorResponse(fmt.Errorf("failed to close replay shell: %w", err))
	}
	if err := <-done; err != nil {
		return NewErrorResponse(fmt.Errorf("replay interrupted: %w", err))
	}

	cmds := recorder.Commands()
	if cmds == nil {
		cmds = []types.Command{}
	}
	return NewSuccessResponse(ReplayResponse{
		Commands:  cmds,
		Frames:    recorder.Frames(),
		Unhandled: unhandled,
	})
}
