package commands

import (
	"fmt"

	"github.com/mobile-next/rendershell/orientation"
	"github.com/mobile-next/rendershell/types"
)

// OrientationMapRequest represents a one-off orientation mapping, outside
// any session
type OrientationMapRequest struct {
	Matrix []float64 `json:"matrix,omitempty"`
	Vector []float64 `json:"vector,omitempty"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// OrientationMapResponse represents the mapped sample
type OrientationMapResponse struct {
	Sample   types.OrientationSample `json:"sample"`
	Portrait bool                    `json:"portrait"`
}

// OrientationMapCommand maps a rotation matrix or vector for a screen size
func OrientationMapCommand(req OrientationMapRequest) *CommandResponse {
	if req.Width <= 0 || req.Height <= 0 {
		return NewErrorResponse(fmt.Errorf("width and height must be positive, got %dx%d", req.Width, req.Height))
	}
	if (req.Vector == nil) == (req.Matrix == nil) {
		return NewErrorResponse(fmt.Errorf("exactly one of matrix or vector is required"))
	}

	matrix := req.Matrix
	if req.Vector != nil {
		m, err := orientation.MatrixFromRotationVector(req.Vector)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("failed to convert rotation vector: %w", err))
		}
		matrix = m
	}

	screen := types.ScreenSize{Width: req.Width, Height: req.Height}
	sample, err := orientation.Map(matrix, screen)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to map orientation: %w", err))
	}

	return NewSuccessResponse(OrientationMapResponse{
		Sample:   sample,
		Portrait: screen.Portrait(),
	})
}
