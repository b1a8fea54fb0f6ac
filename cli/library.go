package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	libStatus string
	libSortBy string
	libOrder  string
	libGameID int64
	libName   string
	libRating int
	libNotes  string
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Manage your game library",
	Long:    `List, add, update, and remove games in your personal library.`,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List games in your library",
	Long: `List games in your library, optionally filtered by status and sorted.

Statuses: playing, completed, dropped, plan-to-play
Sort keys: name, rating, userRating, dateAdded, dateCompleted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		params := url.Values{}
		if libStatus != "" {
			params.Set("status", libStatus)
		}
		if libSortBy != "" {
			params.Set("sort_by", libSortBy)
		}
		if libOrder != "" {
			params.Set("order", libOrder)
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.LibraryResponse
		if err := client.get(ctx, "/api/games/library", params, &res); err != nil {
			return fmt.Errorf("failed to fetch library: %w", err)
		}

		if res.Count == 0 {
			if libStatus != "" {
				fmt.Printf("No games with status %q in your library\n", libStatus)
			} else {
				fmt.Println("Your library is empty")
				fmt.Println("Try: gameshelf games search <title>")
			}
			return nil
		}

		writeEntries(os.Stdout, res.Games)
		fmt.Println()
		printStats(res.Stats)
		return nil
	},
}

var libraryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a game to your library",
	Long:  `Add a game by catalog ID. Name and artwork are looked up in the catalog unless --name is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if libGameID <= 0 {
			return fmt.Errorf("game id is required (--game-id)")
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		req := models.AddEntryRequest{
			GameID: libGameID,
			Name:   libName,
			Status: models.GameStatus(libStatus),
			Notes:  libNotes,
		}
		if cmd.Flags().Changed("rating") {
			rating := libRating
			req.UserRating = &rating
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.EntryResponse
		if err := client.post(ctx, "/api/games/library", req, &res); err != nil {
			return fmt.Errorf("failed to add game: %w", err)
		}

		printSuccess(fmt.Sprintf("Added %s to your library (%s)", res.Entry.Name, res.Entry.Status))
		printStats(res.Stats)
		return nil
	},
}

var libraryUpdateCmd = &cobra.Command{
	Use:   "update [game-id]",
	Short: "Update a game in your library",
	Long:  `Change the status, rating, or notes of a library entry. Only the given flags are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}

		var req models.UpdateEntryRequest
		flags := cmd.Flags()
		if flags.Changed("status") {
			status := models.GameStatus(libStatus)
			req.Status = &status
		}
		if flags.Changed("rating") {
			rating := libRating
			req.UserRating = &rating
		}
		if flags.Changed("notes") {
			notes := libNotes
			req.Notes = &notes
		}
		if req.Status == nil && req.UserRating == nil && req.Notes == nil {
			return fmt.Errorf("nothing to update (use --status, --rating, or --notes)")
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.EntryResponse
		if err := client.put(ctx, fmt.Sprintf("/api/games/library/%d", id), req, &res); err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		printSuccess(fmt.Sprintf("Updated %s", res.Entry.Name))
		writeEntries(os.Stdout, []models.GameEntry{res.Entry})
		return nil
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:     "remove [game-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a game from your library",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res struct {
			Message string       `json:"message"`
			Stats   models.Stats `json:"stats"`
		}
		if err := client.delete(ctx, fmt.Sprintf("/api/games/library/%d", id), nil, &res); err != nil {
			return fmt.Errorf("failed to remove game: %w", err)
		}

		printSuccess(res.Message)
		printStats(res.Stats)
		return nil
	},
}

var libraryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		var res models.StatsResponse
		if err := client.get(ctx, "/api/games/stats", nil, &res); err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		printStats(res.Stats)
		fmt.Println()
		for _, status := range models.GameStatuses {
			fmt.Printf("  %-13s %d\n", status, res.ByStatus[status])
		}
		return nil
	},
}

func writeEntries(out io.Writer, entries []models.GameEntry) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tRATING\tADDED\tCOMPLETED")
	for _, e := range entries {
		rating := "-"
		if e.UserRating != nil {
			rating = strconv.Itoa(*e.UserRating) + "/10"
		}
		completed := "-"
		if e.DateCompleted != nil {
			completed = e.DateCompleted.Local().Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.GameID, truncate(e.Name, 40), e.Status, rating, e.DateAdded.Local().Format("2006-01-02"), completed)
	}
	w.Flush()
}

func printStats(s models.Stats) {
	avg := "-"
	if s.AverageRating > 0 {
		avg = strconv.FormatFloat(s.AverageRating, 'f', 2, 64)
	}
	printInfo(fmt.Sprintf("Total: %d | Completed: %d | Average rating: %s", s.TotalGames, s.CompletedGames, avg))
}

func statusUsage() string {
	names := make([]string, len(models.GameStatuses))
	for i, s := range models.GameStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func init() {
	libraryListCmd.Flags().StringVarP(&libStatus, "status", "s", "", "Filter by status ("+statusUsage()+")")
	libraryListCmd.Flags().StringVar(&libSortBy, "sort", "", "Sort key (name, rating, userRating, dateAdded, dateCompleted)")
	libraryListCmd.Flags().StringVar(&libOrder, "order", "", "Sort order (asc, desc)")

	libraryAddCmd.Flags().Int64Var(&libGameID, "game-id", 0, "Catalog game ID")
	libraryAddCmd.Flags().StringVar(&libName, "name", "", "Game name (skips the catalog lookup)")
	libraryAddCmd.Flags().StringVarP(&libStatus, "status", "s", "", "Status ("+statusUsage()+")")
	libraryAddCmd.Flags().IntVarP(&libRating, "rating", "r", 0, "Your rating (1-10)")
	libraryAddCmd.Flags().StringVar(&libNotes, "notes", "", "Personal notes")

	libraryUpdateCmd.Flags().StringVarP(&libStatus, "status", "s", "", "Status ("+statusUsage()+")")
	libraryUpdateCmd.Flags().IntVarP(&libRating, "rating", "r", 0, "Your rating (1-10)")
	libraryUpdateCmd.Flags().StringVar(&libNotes, "notes", "", "Personal notes")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryUpdateCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryStatsCmd)
}
