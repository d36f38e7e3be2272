package cli

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mobile-next/rendershell/server"
	"github.com/mobile-next/rendershell/utils"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rendershell",
	Short: "Input and lifecycle shell for a native rendering engine",
	Long: `Turns raw touch, rotation and location input into render commands for a
native engine, and coordinates the camera, rotation sensor and GPS it shares
with the host platform.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func initConfig() error {
	loaded, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if verbose {
		loaded.Verbose = true
	}
	config = loaded

	if err := config.apply(); err != nil {
		return err
	}

	if config.Path != "" {
		utils.Verbose("loaded config from %s", config.Path)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: rendershell/config.ini in the user config directory)")
}

// Execute runs the root command
func Execute() error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
