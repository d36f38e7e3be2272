package cli

import (
	"fmt"

	"github.com/mobile-next/rendershell/daemon"
	"github.com/mobile-next/rendershell/server"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the rendershell JSON-RPC server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the rendershell server",
	Long:  `Starts the JSON-RPC server. Sessions are opened over /rpc and streamed to subscribers on /ws.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := config.Listen
		if listenAddr != "" {
			addr = listenAddr
		}

		cors := config.CORS
		if cmd.Flags().Changed("cors") {
			cors = enableCORS
		}

		var token string
		if requireAuth {
			var err error
			token, err = loadServerToken()
			if err != nil {
				return err
			}
		}

		if runAsDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize()
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			fmt.Printf("Server daemon spawned, attempting to listen on %s\n", addr)
			return nil
		}

		return server.StartServer(server.Config{
			Addr:       addr,
			EnableCORS: cors,
			Token:      token,
		})
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized rendershell server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := config.Listen
		if listenAddr != "" {
			addr = listenAddr
		}

		var token string
		if requireAuth {
			var err error
			token, err = loadServerToken()
			if err != nil {
				return err
			}
		}

		if err := daemon.KillServer(addr, token); err != nil {
			return err
		}

		fmt.Printf("Server shutdown command sent successfully\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	// server start flags
	serverStartCmd.Flags().StringVar(&listenAddr, "listen", "", fmt.Sprintf("Address to listen on (default: %s)", defaultServerAddress))
	serverStartCmd.Flags().BoolVar(&enableCORS, "cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolVarP(&runAsDaemon, "daemon", "d", false, "Run server in daemon mode (background)")
	serverStartCmd.Flags().BoolVar(&requireAuth, "auth", false, "Require the token from 'rendershell auth generate' on every request")

	// server kill flags
	serverKillCmd.Flags().StringVar(&listenAddr, "listen", "", fmt.Sprintf("Address of server to kill (default: %s)", defaultServerAddress))
	serverKillCmd.Flags().BoolVar(&requireAuth, "auth", false, "Send the stored token with the shutdown request")
}
