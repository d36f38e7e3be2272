package orientation

import (
	"math"
	"testing"

	"github.com/mobile-next/rendershell/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

var (
	portrait  = types.ScreenSize{Width: 1080, Height: 1920}
	landscape = types.ScreenSize{Width: 1920, Height: 1080}
	square    = types.ScreenSize{Width: 800, Height: 800}
)

var identity = []float64{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// aboutX is a rotation of phi radians about the device x axis.
func aboutX(phi float64) []float64 {
	c, s := math.Cos(phi), math.Sin(phi)
	return []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

func assertSample(t *testing.T, want, got types.OrientationSample) {
	t.Helper()
	assert.InDelta(t, want.Pitch, got.Pitch, eps, "pitch")
	assert.InDelta(t, want.Yaw, got.Yaw, eps, "yaw")
	assert.InDelta(t, want.Roll, got.Roll, eps, "roll")
}

func TestMap_IdentityPortrait(t *testing.T) {
	got, err := Map(identity, portrait)
	require.NoError(t, err)
	assertSample(t, types.OrientationSample{Pitch: -math.Pi / 2, Yaw: 0, Roll: 0}, got)
}

func TestMap_IdentityLandscape(t *testing.T) {
	got, err := Map(identity, landscape)
	require.NoError(t, err)
	assertSample(t, types.OrientationSample{Pitch: -math.Pi / 2, Yaw: -math.Pi / 2, Roll: 0}, got)
}

func TestMap_SquareScreenIsLandscape(t *testing.T) {
	a, err := Map(aboutX(0.3), square)
	require.NoError(t, err)
	b, err := Map(aboutX(0.3), landscape)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMap_PitchAxisSwapsBetweenOrientations(t *testing.T) {
	phi := 0.4
	raw := Decompose(mustRotation(t, aboutX(phi)))
	assert.InDelta(t, -phi, raw.Pitch, eps)
	assert.InDelta(t, 0, raw.Roll, eps)
	assert.InDelta(t, 0, raw.Yaw, eps)

	p, err := Map(aboutX(phi), portrait)
	require.NoError(t, err)
	assertSample(t, types.OrientationSample{Pitch: phi - math.Pi/2, Yaw: 0, Roll: 0}, p)

	l, err := Map(aboutX(phi), landscape)
	require.NoError(t, err)
	assertSample(t, types.OrientationSample{Pitch: -math.Pi / 2, Yaw: -math.Pi / 2, Roll: -phi}, l)
}

func TestRemap_Conventions(t *testing.T) {
	a := Angles{Yaw: 0.1, Pitch: 0.2, Roll: 0.3}

	assertSample(t, types.OrientationSample{Pitch: -0.2 - math.Pi/2, Yaw: -0.1, Roll: -0.3}, Remap(a, portrait))
	assertSample(t, types.OrientationSample{Pitch: -0.3 - math.Pi/2, Yaw: -0.1 - math.Pi/2, Roll: 0.2}, Remap(a, landscape))
}

func TestMap_IsPure(t *testing.T) {
	m, err := MatrixFromRotationVector([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	original := append([]float64(nil), m...)

	first, err := Map(m, portrait)
	require.NoError(t, err)
	second, err := Map(m, portrait)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, original, m, "input must not be modified")
}

func TestMap_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"empty", nil},
		{"too short", []float64{1, 0, 0, 0, 1, 0, 0, 0}},
		{"too long", make([]float64, 16)},
		{"nan", []float64{1, 0, 0, 0, math.NaN(), 0, 0, 0, 1}},
		{"inf", []float64{1, 0, 0, 0, 1, 0, 0, 0, math.Inf(-1)}},
		{"zero", make([]float64, 9)},
		{"scaled", []float64{2, 0, 0, 0, 2, 0, 0, 0, 2}},
		{"shear", []float64{1, 0.5, 0, 0, 1, 0, 0, 0, 1}},
		{"reflection", []float64{1, 0, 0, 0, 1, 0, 0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(tt.values, portrait)
			assert.ErrorIs(t, err, ErrInvalidMatrix)
		})
	}
}

func TestNewRotation_AcceptsSensorNoise(t *testing.T) {
	values := aboutX(0.4)
	values[0] += 1e-5
	values[4] -= 1e-5

	_, err := NewRotation(values)
	assert.NoError(t, err)
}

func TestDecompose_ClampsNoisyPitch(t *testing.T) {
	r := mustRotation(t, []float64{
		1, 0, 0,
		0, 0, -1,
		0, 1.0000001, 0,
	})

	got := Decompose(r)
	assert.False(t, math.IsNaN(got.Pitch))
	assert.InDelta(t, -math.Pi/2, got.Pitch, 1e-6)
}

func TestMatrixFromRotationVector(t *testing.T) {
	t.Run("zero vector is identity", func(t *testing.T) {
		m, err := MatrixFromRotationVector([]float64{0, 0, 0})
		require.NoError(t, err)
		assert.True(t, floats.EqualApprox(identity, m, eps))
	})

	t.Run("yaw about z", func(t *testing.T) {
		theta := math.Pi / 6
		m, err := MatrixFromRotationVector([]float64{0, 0, math.Sin(theta / 2), math.Cos(theta / 2)})
		require.NoError(t, err)

		raw := Decompose(mustRotation(t, m))
		assert.InDelta(t, -theta, raw.Yaw, eps)

		got, err := Map(m, portrait)
		require.NoError(t, err)
		assert.InDelta(t, theta, got.Yaw, eps)
	})

	t.Run("derived scalar matches explicit scalar", func(t *testing.T) {
		x, y, z := 0.1, -0.2, 0.3
		w := math.Sqrt(1 - x*x - y*y - z*z)

		derived, err := MatrixFromRotationVector([]float64{x, y, z})
		require.NoError(t, err)
		explicit, err := MatrixFromRotationVector([]float64{x, y, z, w, 0.05})
		require.NoError(t, err)

		assert.True(t, floats.EqualApprox(explicit, derived, eps))
	})

	t.Run("pitch about x matches rotation matrix", func(t *testing.T) {
		phi := 0.25
		m, err := MatrixFromRotationVector([]float64{math.Sin(phi / 2), 0, 0, math.Cos(phi / 2)})
		require.NoError(t, err)
		assert.True(t, floats.EqualApprox(aboutX(phi), m, eps))
	})

	t.Run("non-unit quaternion is normalized", func(t *testing.T) {
		phi := 0.25
		m, err := MatrixFromRotationVector([]float64{3 * math.Sin(phi / 2), 0, 0, 3 * math.Cos(phi / 2)})
		require.NoError(t, err)
		assert.True(t, floats.EqualApprox(aboutX(phi), m, eps))

		_, err = NewRotation(m)
		assert.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := MatrixFromRotationVector([]float64{0, 0, 0, 0})
		assert.ErrorIs(t, err, ErrInvalidVector)
		_, err = MatrixFromRotationVector([]float64{0, 0})
		assert.ErrorIs(t, err, ErrInvalidVector)
		_, err = MatrixFromRotationVector([]float64{0, 0, 0, 1, 0, 0})
		assert.ErrorIs(t, err, ErrInvalidVector)
		_, err = MatrixFromRotationVector([]float64{0, math.NaN(), 0})
		assert.ErrorIs(t, err, ErrInvalidVector)
	})
}

func mustRotation(t *testing.T, values []float64) *mat.Dense {
	t.Helper()
	r, err := NewRotation(values)
	require.NoError(t, err)
	return r
}
