package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	profileBio    string
	profileGenres []string
	searchLimit   int
	deleteConfirm bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit profiles",
	Long:  `Show or update your profile, look up other players, or delete your account.`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var user models.User
		if err := client.get(ctx, "/api/users/profile", nil, &user); err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		printProfile(user.Public())
		fmt.Printf("Email: %s\n", user.Email)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your bio or favorite genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.UpdateProfileRequest
		if cmd.Flags().Changed("bio") {
			bio := profileBio
			req.Bio = &bio
		}
		if cmd.Flags().Changed("genres") {
			req.FavoriteGenres = profileGenres
			if req.FavoriteGenres == nil {
				req.FavoriteGenres = []string{}
			}
		}
		if req.Bio == nil && req.FavoriteGenres == nil {
			return fmt.Errorf("nothing to update (use --bio or --genres)")
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res struct {
			Message string      `json:"message"`
			User    models.User `json:"user"`
		}
		if err := client.put(ctx, "/api/users/profile", req, &res); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		printSuccess(res.Message)
		printProfile(res.User.Public())
		return nil
	},
}

var profileViewCmd = &cobra.Command{
	Use:   "view [username]",
	Short: "View another player's public profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var profile models.PublicProfile
		if err := client.get(ctx, "/api/users/"+url.PathEscape(args[0]), nil, &profile); err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		printProfile(profile)
		return nil
	},
}

var profileSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search players by username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		params := url.Values{"q": {args[0]}}
		if searchLimit > 0 {
			params.Set("limit", strconv.Itoa(searchLimit))
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res struct {
			Users []models.PublicProfile `json:"users"`
			Count int                    `json:"count"`
		}
		if err := client.get(ctx, "/api/users/search", params, &res); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if res.Count == 0 {
			fmt.Printf("No players found for query: %s\n", args[0])
			return nil
		}
		fmt.Printf("Found %d player(s):\n", res.Count)
		for _, p := range res.Users {
			fmt.Printf("  %-30s %d games, %d completed\n", p.Username, p.Stats.TotalGames, p.Stats.CompletedGames)
		}
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account",
	Long:  `Permanently delete your account and library. Your password is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		if !deleteConfirm {
			answer, err := readPassword(fmt.Sprintf("Type %q to confirm deletion: ", cfg.User.Username))
			if err != nil {
				return err
			}
			if answer != cfg.User.Username {
				printInfo("Aborted")
				return nil
			}
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		if err := client.delete(ctx, "/api/users/account", models.DeleteAccountRequest{Password: password}, nil); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}

		if err := config.ClearUserToken(); err != nil {
			fmt.Println("Warning: Failed to clear token from config")
		}
		printSuccess("Account deleted")
		return nil
	},
}

func printProfile(p models.PublicProfile) {
	printHeader(p.Username)
	if !p.Profile.JoinDate.IsZero() {
		fmt.Printf("Joined: %s\n", p.Profile.JoinDate.Local().Format("2006-01-02"))
	}
	fmt.Printf("Bio: %s\n", orDash(p.Profile.Bio))
	fmt.Printf("Favorite genres: %s\n", orDash(strings.Join(p.Profile.FavoriteGenres, ", ")))
	printStats(p.Stats)
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileBio, "bio", "", "Short bio (max 500 characters)")
	profileUpdateCmd.Flags().StringSliceVar(&profileGenres, "genres", nil, "Favorite genres, comma separated (max 10)")

	profileSearchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of results (1-50)")

	profileDeleteCmd.Flags().BoolVar(&deleteConfirm, "yes", false, "Skip the confirmation prompt")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileViewCmd)
	profileCmd.AddCommand(profileSearchCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}
