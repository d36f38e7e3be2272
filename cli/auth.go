package cli

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

const keyringService = "rendershell"
const keyringUser = "server"

const tokenBytes = 32

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Server token commands",
	Long:  `Commands for managing the bearer token that 'server start --auth' requires.`,
}

var authGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store a new server token",
	Long:  `Generates a random token, stores it in the system keyring and prints it. Any previous token is replaced.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := generateToken()
		if err != nil {
			return err
		}

		if err := keyring.Set(keyringService, keyringUser, token); err != nil {
			return fmt.Errorf("failed to store server token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Display the current server token",
	Long:  `Displays the token stored in the system keyring.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := loadServerToken()
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

var authResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored server token",
	Long:  `Deletes the token from the system keyring.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keyring.Delete(keyringService, keyringUser); err != nil {
			fmt.Println("no server token is stored")
			return nil
		}

		fmt.Println("Server token removed.")
		return nil
	},
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func loadServerToken() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no server token found, run 'rendershell auth generate' first")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read server token: %w", err)
	}
	return token, nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authGenerateCmd, authTokenCmd, authResetCmd)
}
