package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"quizbattle/internal/domain"
)

// NewLoginCmd logs a player in and persists the token.
func NewLoginCmd(configPath *string) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, *configPath, username, false)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	return cmd
}

// NewAdminLoginCmd logs an administrator in.
func NewAdminLoginCmd(configPath *string) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "admin-login",
		Short: "Log in as an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, *configPath, username, true)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	return cmd
}

func runLogin(cmd *cobra.Command, configPath, username string, admin bool) error {
	ctx := cmd.Context()
	rt, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	creds := domain.Credentials{}
	if creds.Username, err = p.field("Username", username); err != nil {
		return err
	}
	if creds.Password, err = p.password("Password"); err != nil {
		return err
	}

	if admin {
		err = rt.auth.AdminLogin(ctx, creds)
	} else {
		err = rt.auth.Login(ctx, creds)
	}
	if err != nil {
		return errors.New(domain.UserMessage(err, "Login failed"))
	}

	profile := rt.auth.Profile()
	switch {
	case profile.Admin != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as admin %s.\n", profile.Admin.Username)
	case profile.User != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", profile.User.Username)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
	}
	return nil
}

// NewRegisterCmd creates a player account.
func NewRegisterCmd(configPath *string) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a player account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			reg := domain.Registration{}
			if reg.Username, err = p.field("Username", username); err != nil {
				return err
			}
			if reg.Email, err = p.field("Email", email); err != nil {
				return err
			}
			if reg.Password, err = p.password("Password"); err != nil {
				return err
			}
			return runRegister(ctx, cmd, rt, reg)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func runRegister(ctx context.Context, cmd *cobra.Command, rt *runtime, reg domain.Registration) error {
	if _, err := rt.auth.Register(ctx, reg); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			printFieldErrors(cmd, verr)
		}
		return errors.New(domain.UserMessage(err, "Registration failed"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! Please log in.")
	return nil
}

// NewLogoutCmd clears the stored token.
func NewLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.auth.Teardown()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// NewProfileCmd shows the current identity.
func NewProfileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show who is logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			profile := rt.auth.Profile()
			switch {
			case profile.Admin != nil:
				fmt.Fprintf(out, "admin %s (id %d)\n", profile.Admin.Username, profile.Admin.ID)
			case profile.User != nil:
				fmt.Fprintf(out, "%s <%s> (id %d)\n", profile.User.Username, profile.User.Email, profile.User.ID)
			default:
				fmt.Fprintln(out, "Not logged in.")
			}
			return nil
		},
	}
}

func printFieldErrors(cmd *cobra.Command, verr *domain.ValidationError) {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f, verr.Fields[f])
	}
}
