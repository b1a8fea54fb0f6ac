package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/spf13/cobra"
)

var searchPageSize int

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Game catalog commands",
	Long:  `Search the game catalog and look up game details.`,
}

var gamesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for games",
	Long:  `Search the catalog by title.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		client, _, err := clientFromConfig(false)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		params := url.Values{"search": {query}}
		if searchPageSize > 0 {
			params.Set("page_size", strconv.Itoa(searchPageSize))
		}

		var res models.GameSearchResponse
		if err := client.get(ctx, "/api/games/search", params, &res); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if res.Count == 0 {
			fmt.Printf("No games found for query: %s\n", query)
			return nil
		}

		fmt.Printf("Found %d game(s):\n\n", res.Count)
		for i, g := range res.Results {
			fmt.Printf("%d. %s\n", i+1, g.Name)
			fmt.Printf("   ID: %d\n", g.ID)
			if g.Released != "" {
				fmt.Printf("   Released: %s\n", g.Released)
			}
			fmt.Printf("   Rating: %.2f\n", g.Rating)
			if len(g.Genres) > 0 {
				fmt.Printf("   Genres: %s\n", strings.Join(g.Genres, ", "))
			}
			if len(g.Platforms) > 0 {
				fmt.Printf("   Platforms: %s\n", strings.Join(g.Platforms, ", "))
			}
			fmt.Println()
		}

		fmt.Println("To add to library:")
		fmt.Println("  gameshelf library add --game-id <game-id> --status playing")
		return nil
	},
}

var gamesInfoCmd = &cobra.Command{
	Use:   "info [game-id]",
	Short: "Show game details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}

		client, _, err := clientFromConfig(false)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var game models.GameDetails
		if err := client.get(ctx, fmt.Sprintf("/api/games/details/%d", id), nil, &game); err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}

		printHeader(game.Name)
		fmt.Printf("ID: %d\n", game.ID)
		fmt.Printf("Released: %s\n", orDash(game.Released))
		fmt.Printf("Rating: %.2f\n", game.Rating)
		if game.Metacritic > 0 {
			fmt.Printf("Metacritic: %d\n", game.Metacritic)
		}
		if game.Playtime > 0 {
			fmt.Printf("Average playtime: %dh\n", game.Playtime)
		}
		fmt.Printf("Genres: %s\n", orDash(strings.Join(game.Genres, ", ")))
		fmt.Printf("Platforms: %s\n", orDash(strings.Join(game.Platforms, ", ")))
		fmt.Printf("Developers: %s\n", orDash(strings.Join(game.Developers, ", ")))
		fmt.Printf("Publishers: %s\n", orDash(strings.Join(game.Publishers, ", ")))
		if game.Website != "" {
			fmt.Printf("Website: %s\n", game.Website)
		}
		if game.Description != "" {
			fmt.Printf("\n%s\n", truncate(game.Description, 600))
		}
		return nil
	},
}

func parseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game id: %q", s)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	gamesSearchCmd.Flags().IntVar(&searchPageSize, "limit", 0, "Maximum number of results (1-40)")

	gamesCmd.AddCommand(gamesSearchCmd)
	gamesCmd.AddCommand(gamesInfoCmd)
}
