package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terratrac/terratrac-go/internal/credentials"
)

var (
	loginToken string
	csrfCookie string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage server credentials",
	Long: `Manage the API token and CSRF token sent with every request.

Subcommands:
  login   Store an API token
  logout  End the server session and forget the token
  csrf    Store a CSRF token
  status  Show which credentials are set

Examples:
  terratrac auth login --token 0123abcd
  terratrac auth csrf --cookie "sessionid=x; csrftoken=abc"
  terratrac auth logout`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the server session and forget the token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authCSRFCmd = &cobra.Command{
	Use:   "csrf [token]",
	Short: "Store a CSRF token, or extract it from a Cookie header",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthCSRF,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are set",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().StringVar(&loginToken, "token", "", "API token (required)")
	authLoginCmd.MarkFlagRequired("token")
	authCSRFCmd.Flags().StringVar(&csrfCookie, "cookie", "", "raw Cookie header to read csrftoken from")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authCSRFCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	store.SetAuthToken(strings.TrimSpace(loginToken))
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", store.Path())
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if err := apiClient.Logout(context.Background()); err != nil {
		// the local token is dropped either way
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	store.ClearAuthToken()
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runAuthCSRF(cmd *cobra.Command, args []string) error {
	var token string
	switch {
	case len(args) == 1:
		token = args[0]
	case csrfCookie != "":
		token = credentials.CookieValue(csrfCookie, "csrftoken")
		if token == "" {
			return fmt.Errorf("no csrftoken in cookie header")
		}
	default:
		return fmt.Errorf("pass a token or --cookie")
	}

	store.SetCSRFToken(token)
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Println("CSRF token saved")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	set := func(v string) string {
		if v == "" {
			return "not set"
		}
		return "set"
	}
	fmt.Printf("Server:      %s\n", cfg.ServerURL)
	fmt.Printf("Credentials: %s\n", store.Path())
	fmt.Printf("API token:   %s\n", set(store.AuthToken()))
	fmt.Printf("CSRF token:  %s\n", set(store.CSRFToken()))
	fmt.Printf("Language:    %s\n", store.Lang())
	return nil
}
