package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/types"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [events.json]",
	Short: "Replay recorded touch events through a fresh shell",
	Long: `Feeds a JSON array of pointer events through the gesture classifier and
the render loop and prints the commands the engine received. Each event looks
like {"phase":"down","pointerIndex":0,"pointers":[{"x":10,"y":20}],"timestamp":0}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := readEvents(args[0])
		if err != nil {
			response := commands.NewErrorResponse(err)
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.ReplayRequest{
			Width:  screenWidth,
			Height: screenHeight,
			Events: events,
		}

		response := commands.ReplayCommand(cmd.Context(), req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func readEvents(path string) ([]types.PointerEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	var events []types.PointerEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events in %s: %w", path, err)
	}
	return events, nil
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().IntVar(&screenWidth, "width", 1080, "screen width in pixels")
	replayCmd.Flags().IntVar(&screenHeight, "height", 1920, "screen height in pixels")
}
