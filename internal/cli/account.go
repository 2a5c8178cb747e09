package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (r *runtime) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := r.readPassword("Register")
			if err != nil {
				return err
			}
			if err := r.app.Register(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Your account is successfully created.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&r.password, "password", "p", "", "account password, prompted when empty")
	return cmd
}

func (r *runtime) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := r.readPassword("Sign in")
			if err != nil {
				return err
			}
			if err := r.app.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", r.app.Session().Account().Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&r.password, "password", "p", "", "account password, prompted when empty")
	return cmd
}

func (r *runtime) readPassword(title string) (string, error) {
	if r.password != "" {
		return r.password, nil
	}
	password, ok := r.app.Prompter().Input(title, "Password", "")
	if !ok || password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func (r *runtime) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// An expired session is still signed out locally.
			_ = r.app.Session().AutoLogin(cmd.Context())
			ok, err := r.app.SignOut()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Still signed in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (r *runtime) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := r.app.Session()
			if err := s.AutoLogin(cmd.Context()); err != nil {
				if email := s.CachedEmail(); email != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Not signed in (last login: %s)\n", email)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			acc := s.Account()
			return r.print(cmd.OutOrStdout(), map[string]string{"email": acc.Email, "uid": acc.UID}, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", acc.Email, acc.UID)
			})
		},
	}
}
