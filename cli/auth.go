package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"cms-platform/client"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string
	var admin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if password == "" {
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				password = strings.TrimRight(line, "\r\n")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return a.out.Fail(ExitCommandError, "VALIDATION_ERROR", "Email and password are required", nil)
			}

			cred := client.Credentials{Email: strings.TrimSpace(email), Password: password}
			login := a.sess.Login
			if admin {
				login = a.sess.AdminLogin
			}
			snap, err := login(cmd.Context(), cred)
			if err != nil {
				a.forget()
				code := "LOGIN_FAILED"
				var apiErr *client.APIError
				if errors.As(err, &apiErr) {
					code = apiErr.Code
				}
				return a.out.Fail(ExitFailure, code, snap.Error, nil)
			}

			a.state.Email = cred.Email
			a.state.Role = snap.Role.String()
			if err := a.save(); err != nil {
				return err
			}
			return a.out.Success(userView(*snap.User))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")
	cmd.Flags().BoolVar(&admin, "admin", false, "sign in through the admin endpoint")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.sess.Logout(cmd.Context()); err != nil {
				return err
			}
			a.forget()
			return a.out.Success(messageView{Message: "signed out"})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			snap := a.sess.Init(cmd.Context())
			if !snap.IsAuthenticated() {
				a.forget()
				return a.out.Fail(ExitFailure, "NOT_SIGNED_IN", "not signed in", nil)
			}
			a.state.Role = snap.Role.String()
			if err := a.save(); err != nil {
				return err
			}
			return a.out.Success(userView(*snap.User))
		},
	}
}
