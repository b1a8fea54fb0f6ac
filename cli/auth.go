package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	username string
	email    string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, login, and logout commands for GameShelf authentication.`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  `Register a new GameShelf account with username and email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" {
			return fmt.Errorf("username is required (--username)")
		}
		if email == "" {
			return fmt.Errorf("email is required (--email)")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		client, _, err := clientFromConfig(false)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.AuthResponse
		err = client.post(ctx, "/api/auth/register", models.RegisterRequest{
			Username: username,
			Email:    email,
			Password: password,
		}, &res)
		if err != nil {
			msg := err.Error()
			switch {
			case statusOf(err) == http.StatusConflict:
				printError("Registration failed: " + msg)
				fmt.Printf("Try: gameshelf auth login --username %s\n", username)
			case strings.Contains(msg, "too weak"):
				printError("Registration failed: Password too weak")
				fmt.Println("Password must be at least 8 characters with mixed case and numbers")
			default:
				printError("Registration failed: " + msg)
			}
			return fmt.Errorf("registration failed")
		}

		if err := config.UpdateUserToken(res.Username, res.Token); err != nil {
			fmt.Println("Warning: Failed to save token to config")
		}

		printSuccess("Account created successfully!")
		fmt.Printf("User ID: %s\n", res.UserID)
		fmt.Printf("Username: %s\n", res.Username)
		fmt.Printf("Email: %s\n", res.Email)
		fmt.Printf("Session expires: %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	Long:  `Login with your username or email. The session token is stored in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" && email == "" {
			return fmt.Errorf("either --username or --email is required")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		client, _, err := clientFromConfig(false)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.AuthResponse
		err = client.post(ctx, "/api/auth/login", models.LoginRequest{
			Username: username,
			Email:    email,
			Password: password,
		}, &res)
		if err != nil {
			if statusOf(err) == http.StatusUnauthorized {
				printError("Login failed: Invalid credentials")
				fmt.Println("Check your username/email and password")
				return fmt.Errorf("login failed")
			}
			return fmt.Errorf("login failed: %w", err)
		}

		if err := config.UpdateUserToken(res.Username, res.Token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		printSuccess(fmt.Sprintf("Welcome back, %s!", res.Username))
		fmt.Printf("Session expires: %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your account",
	Long:  `Revoke the current session on the server and remove the stored token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			if errors.Is(err, errNotLoggedIn) {
				printInfo("You are not logged in")
				return nil
			}
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		// An already invalid token is still cleared locally.
		if err := client.post(ctx, "/api/auth/logout", nil, nil); err != nil && statusOf(err) != http.StatusUnauthorized {
			printError("Server logout failed: " + err.Error())
		}

		if err := config.ClearUserToken(); err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
		printSuccess("Logged out successfully")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := clientFromConfig(true)
		if err != nil {
			if errors.Is(err, errNotLoggedIn) {
				printInfo("Not logged in")
				return nil
			}
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var user models.User
		if err := client.get(ctx, "/api/users/profile", nil, &user); err != nil {
			if statusOf(err) == http.StatusUnauthorized {
				printError(fmt.Sprintf("Session for %s is no longer valid: %s", cfg.User.Username, err))
				fmt.Println("Run: gameshelf auth login")
				return nil
			}
			return err
		}

		printSuccess(fmt.Sprintf("Logged in as %s (%s)", user.Username, user.Email))
		fmt.Printf("Server: %s\n", cfg.ServerURL())
		return nil
	},
}

var authChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		current, err := readPassword("Current password: ")
		if err != nil {
			return err
		}
		next, err := readPassword("New password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm new password: ")
		if err != nil {
			return err
		}
		if next != confirm {
			return fmt.Errorf("passwords do not match")
		}

		ctx, cancel := withTimeout()
		defer cancel()

		err = client.put(ctx, "/api/users/password", models.ChangePasswordRequest{
			CurrentPassword: current,
			NewPassword:     next,
		}, nil)
		if err != nil {
			return fmt.Errorf("password change failed: %w", err)
		}
		printSuccess("Password changed successfully")
		return nil
	},
}

func init() {
	authRegisterCmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	authRegisterCmd.Flags().StringVarP(&email, "email", "e", "", "Email address")

	authLoginCmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	authLoginCmd.Flags().StringVarP(&email, "email", "e", "", "Email address")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authChangePasswordCmd)
}
