package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crucial707/mtg-cards/cmd/cli/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// InitAuth registers register, login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd())
}

type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().StringVar(&f.password, "password", "", "Password (prompted without echo when omitted)")
}

// resolve fills missing credentials from the terminal.
func (f *credentialFlags) resolve(cmd *cobra.Command) (string, string, error) {
	in := bufio.NewReader(cmd.InOrStdin())
	username := strings.TrimSpace(f.username)
	if username == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", "", err
		}
		username = strings.TrimSpace(line)
	}
	password := f.password
	if password == "" {
		p, err := readPassword(cmd, in)
		if err != nil {
			return "", "", err
		}
		password = p
	}
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}

func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := creds.resolve(cmd)
			if err != nil {
				return err
			}
			msg, err := config.Client(config.Session{}).Register(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := creds.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := config.Client(config.Session{}).Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := config.SaveSession(config.Session{Token: res.Token, UserID: res.UserID, Username: res.Username}); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", res.Username)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			existed, err := config.ClearSession()
			if err != nil {
				return err
			}
			if !existed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}
