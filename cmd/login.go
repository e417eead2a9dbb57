package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinetix-cli/model"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your Cinetix account",
	Long:  `Sign in, or create an account with --register. The token is kept in your user config directory.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()

		register, _ := cmd.Flags().GetBool("register")
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			if username, err = promptText("Username", false); err != nil {
				return err
			}
		}
		password, err := promptText("Password", true)
		if err != nil {
			return err
		}

		ctx := context.Background()
		var user model.User
		if register {
			email, err := promptText("Email", false)
			if err != nil {
				return err
			}
			confirm, err := promptText("Repeat password", true)
			if err != nil {
				return err
			}
			user, err = state.Auth.Register(ctx, model.Registration{Username: username, Email: email, Password: password}, confirm)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
		} else {
			user, err = state.Auth.Login(ctx, model.Credentials{Username: username, Password: password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
		}

		name := user.Username
		if name == "" {
			name = username
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored sign-in token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := state.Auth.Logout(); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().Bool("register", false, "create a new account")
	loginCmd.Flags().StringP("username", "u", "", "account username")
}

func promptText(label string, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", strings.ToLower(label), err)
	}
	if secret {
		return value, nil
	}
	return strings.TrimSpace(value), nil
}
