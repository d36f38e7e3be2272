package cli

import (
	"fmt"

	"github.com/mobile-next/rendershell/commands"
	"github.com/spf13/cobra"
)

var orientationCmd = &cobra.Command{
	Use:   "orientation",
	Short: "Map a rotation sample to engine pitch, yaw and roll",
	Long: `Converts a row-major 3x3 rotation matrix (--matrix) or a rotation vector
(--vector) into the orientation sample the engine receives for a screen of
the given size.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.OrientationMapRequest{
			Matrix: rotationMatrix,
			Vector: rotationVector,
			Width:  screenWidth,
			Height: screenHeight,
		}

		response := commands.OrientationMapCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orientationCmd)

	orientationCmd.Flags().Float64SliceVar(&rotationMatrix, "matrix", nil, "rotation matrix, 9 comma-separated values in row-major order")
	orientationCmd.Flags().Float64SliceVar(&rotationVector, "vector", nil, "rotation vector x,y,z[,w[,accuracy]]")
	orientationCmd.Flags().IntVar(&screenWidth, "width", 1080, "screen width in pixels")
	orientationCmd.Flags().IntVar(&screenHeight, "height", 1920, "screen height in pixels")
}
