package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"feedjournal/pkg/auth"
	"feedjournal/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var tokenName string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the feed API token",
	Long: `Manage the optional bearer token sent to the feed API.

Tokens are looked up in:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The FEEDJOURNAL_TOKEN environment variable

A token in the configuration file or FEEDJOURNAL_TOKEN takes precedence
over a stored one.`,
}

// setTokenCmd represents the auth set-token command
var setTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store a token securely",
	Long: `Store a feed API token in the system keychain or the encrypted file.

The token is read from the terminal without echo, or from stdin when piped.`,
	Example: `  # Interactive
  feedjournal auth set-token

  # From a password manager
  pass show feed/token | feedjournal auth set-token`,
	Args: cobra.NoArgs,
	RunE: runSetToken,
}

// clearTokenCmd represents the auth clear-token command
var clearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runClearToken,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is available",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setTokenCmd)
	authCmd.AddCommand(clearTokenCmd)
	authCmd.AddCommand(statusCmd)

	authCmd.PersistentFlags().StringVar(&tokenName, "name", auth.DefaultName, "name the token is stored under")
}

func runSetToken(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	fmt.Print("Feed API token: ")
	token, err := readPassword(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return errors.New("token is required")
	}

	if err := manager.Store(&auth.Credential{Name: tokenName, Token: token}); err != nil {
		return err
	}

	ui.PrintSuccess("Token stored")
	ui.PrintInfo("Token", auth.MaskToken(token))
	return nil
}

func runClearToken(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(tokenName); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored token", tokenName)
			return nil
		}
		return err
	}

	ui.PrintSuccess("Token removed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred, err := manager.Retrieve(tokenName)
	if err != nil {
		ui.PrintWarning("No token configured", "requests are sent unauthenticated")
		return nil
	}

	ui.PrintInfo("Name", cred.Name)
	ui.PrintInfo("Token", auth.MaskToken(cred.Token))
	if !cred.LastModified.IsZero() {
		ui.PrintInfo("Stored", cred.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// readPassword reads a line without echo when in reads from a terminal
func readPassword(in *os.File) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		password, err := term.ReadPassword(int(in.Fd()))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
