package commands

import (
	"fmt"

	"github.com/mobile-next/rendershell/types"
)

// RotationRequest carries either a raw rotation vector or a row-major 3x3
// rotation matrix, never both
type RotationRequest struct {
	SessionID string    `json:"sessionId"`
	Vector    []float64 `json:"vector,omitempty"`
	Matrix    []float64 `json:"matrix,omitempty"`
}

// RotationResponse reports the mapped sample and whether it reached the
// render queue
type RotationResponse struct {
	Sample    types.OrientationSample `json:"sample"`
	Forwarded bool                    `json:"forwarded"`
}

// LocationRequest represents one GPS fix
type LocationRequest struct {
	SessionID string   `json:"sessionId"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// RotationCommand maps a rotation sample for the session's screen
func RotationCommand(req RotationRequest) *CommandResponse {
	if (req.Vector == nil) == (req.Matrix == nil) {
		return NewErrorResponse(fmt.Errorf("exactly one of 'vector' or 'matrix' is required"))
	}

	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	var (
		sample    types.OrientationSample
		forwarded bool
	)
	if req.Vector != nil {
		sample, forwarded, err = s.Shell.OnRotationVector(req.Vector)
	} else {
		sample, forwarded, err = s.Shell.OnRotationMatrix(req.Matrix)
	}
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to map rotation: %w", err))
	}

	return NewSuccessResponse(RotationResponse{
		Sample:    sample,
		Forwarded: forwarded,
	})
}

// LocationCommand forwards a GPS fix to the engine
func LocationCommand(req LocationRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	forwarded := s.Shell.OnLocation(types.LocationSample{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Altitude:  req.Altitude,
		Accuracy:  req.Accuracy,
	})

	return NewSuccessResponse(map[string]interface{}{
		"forwarded": forwarded,
	})
}
