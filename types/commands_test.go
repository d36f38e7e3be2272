package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGestureCommand_TwoFingerKeepsZeroCoordinates(t *testing.T) {
	tests := []struct {
		name string
		cmd  GestureCommand
	}{
		{"down", Touch2Down(5, 5, 0, 0)},
		{"move", Touch2Move(5, 5, 0, 0)},
		{"up", Touch2Up(5, 5, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.cmd)
			require.NoError(t, err)

			var fields map[string]any
			require.NoError(t, json.Unmarshal(data, &fields))
			assert.Contains(t, fields, "x1")
			assert.Contains(t, fields, "y1")
			assert.Equal(t, float64(0), fields["x1"])
			assert.Equal(t, float64(0), fields["y1"])
		})
	}
}
