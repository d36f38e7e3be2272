package orientation

import (
	"errors"
	"fmt"
	"math"

	"github.com/mobile-next/rendershell/types"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidMatrix = errors.New("invalid rotation matrix")

// orthonormalTolerance absorbs sensor noise in R·Rᵀ
const orthonormalTolerance = 1e-3

var identity3 = mat.NewDiagDense(3, []float64{1, 1, 1})

// Angles is the raw azimuth/pitch/roll decomposition of a rotation matrix,
// before any screen-orientation remapping.
type Angles struct {
	Yaw   float64
	Pitch float64
	Roll  float64
}

// NewRotation wraps a row-major 3x3 rotation matrix. The matrix must be
// orthonormal with a positive determinant.
func NewRotation(values []float64) (*mat.Dense, error) {
	if len(values) != 9 {
		return nil, fmt.Errorf("%w: expected 9 values, got %d", ErrInvalidMatrix, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: element %d is not finite", ErrInvalidMatrix, i)
		}
	}

	data := make([]float64, 9)
	copy(data, values)
	r := mat.NewDense(3, 3, data)

	var rrt mat.Dense
	rrt.Mul(r, r.T())
	if !mat.EqualApprox(&rrt, identity3, orthonormalTolerance) {
		return nil, fmt.Errorf("%w: rows are not orthonormal", ErrInvalidMatrix)
	}
	if mat.Det(r) <= 0 {
		return nil, fmt.Errorf("%w: not a proper rotation", ErrInvalidMatrix)
	}
	return r, nil
}

// Decompose extracts yaw (azimuth), pitch and roll using the same convention
// as Android's SensorManager.getOrientation.
func Decompose(r mat.Matrix) Angles {
	return Angles{
		Yaw:   math.Atan2(r.At(0, 1), r.At(1, 1)),
		Pitch: math.Asin(clamp(-r.At(2, 1))),
		Roll:  math.Atan2(-r.At(2, 0), r.At(2, 2)),
	}
}

// Remap applies the display convention. Portrait keeps the axes and flips
// signs. Landscape swaps pitch and roll for head-mounted viewing.
func Remap(a Angles, screen types.ScreenSize) types.OrientationSample {
	if screen.Portrait() {
		return types.OrientationSample{
			Pitch: -a.Pitch - math.Pi/2,
			Yaw:   -a.Yaw,
			Roll:  -a.Roll,
		}
	}

	return types.OrientationSample{
		Pitch: -a.Roll - math.Pi/2,
		Yaw:   -a.Yaw - math.Pi/2,
		Roll:  a.Pitch,
	}
}

// Map converts a row-major rotation matrix into the sample the engine
// expects for the given screen. It has no state.
func Map(values []float64, screen types.ScreenSize) (types.OrientationSample, error) {
	r, err := NewRotation(values)
	if err != nil {
		return types.OrientationSample{}, err
	}
	return Remap(Decompose(r), screen), nil
}

// asin is undefined outside [-1, 1]; sensor noise can push slightly past it
func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
