package orientation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

var ErrInvalidVector = errors.New("invalid rotation vector")

// MatrixFromRotationVector converts a rotation-vector sensor sample into a
// row-major 3x3 rotation matrix. The vector holds the x, y, z components of
// a unit quaternion, optionally followed by the scalar part and a heading
// accuracy. When the scalar part is missing it is derived from x, y and z.
// The quaternion is normalized before use.
func MatrixFromRotationVector(v []float64) ([]float64, error) {
	if len(v) < 3 || len(v) > 5 {
		return nil, fmt.Errorf("%w: expected 3 to 5 values, got %d", ErrInvalidVector, len(v))
	}
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: element %d is not finite", ErrInvalidVector, i)
		}
	}

	q := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	if len(v) >= 4 {
		q.Real = v[3]
	} else {
		w := 1 - q.Imag*q.Imag - q.Jmag*q.Jmag - q.Kmag*q.Kmag
		if w > 0 {
			q.Real = math.Sqrt(w)
		}
	}

	norm := quat.Abs(q)
	if norm == 0 {
		return nil, fmt.Errorf("%w: zero quaternion", ErrInvalidVector)
	}
	q = quat.Scale(1/norm, q)

	return quaternionToMatrix(q), nil
}

// quaternionToMatrix builds the matrix column by column from the images of
// the unit axes under q v q*.
func quaternionToMatrix(q quat.Number) []float64 {
	axes := [3]quat.Number{{Imag: 1}, {Jmag: 1}, {Kmag: 1}}

	m := make([]float64, 9)
	for col, axis := range axes {
		r := quat.Mul(quat.Mul(q, axis), quat.Conj(q))
		m[col] = r.Imag
		m[3+col] = r.Jmag
		m[6+col] = r.Kmag
	}
	return m
}
