package cli

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	importFormat string
	importInput  string
	batchStatus  string
	batchFile    string
)

var csvHeader = []string{"game_id", "name", "status", "user_rating", "rating", "released", "genres", "platforms", "date_added", "date_completed", "notes"}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data",
	Long:  `Export your library to a file.`,
}

var exportLibraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Export library",
	Long:  `Export your game library to JSON or CSV format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout()
		defer cancel()

		// Import re-adds entries in file order, so export oldest first.
		params := url.Values{}
		params.Set("sort_by", "dateAdded")
		params.Set("order", "asc")

		var res models.LibraryResponse
		if err := client.get(ctx, "/api/games/library", params, &res); err != nil {
			return fmt.Errorf("failed to fetch library: %w", err)
		}

		var buf bytes.Buffer
		switch strings.ToLower(exportFormat) {
		case "json":
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Games); err != nil {
				return err
			}
		case "csv":
			if err := writeLibraryCSV(&buf, res.Games); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s", exportFormat)
		}

		if exportOutput == "" {
			fmt.Print(buf.String())
			return nil
		}
		if err := os.WriteFile(exportOutput, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		printSuccess(fmt.Sprintf("Exported %d games to %s", res.Count, exportOutput))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a library export",
	Long: `Add the games from a JSON or CSV library export to your library.
Games already in your library are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		defer f.Close()

		var entries []models.AddEntryRequest
		switch strings.ToLower(importFormat) {
		case "json":
			entries, err = readLibraryJSON(f)
		case "csv":
			entries, err = readLibraryCSV(f)
		default:
			return fmt.Errorf("unsupported format: %s", importFormat)
		}
		if err != nil {
			return err
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		added, skipped, failed := 0, 0, 0
		for _, entry := range entries {
			ctx, cancel := withTimeout()
			err := client.post(ctx, "/api/games/library", entry, nil)
			cancel()
			switch {
			case err == nil:
				added++
			case statusOf(err) == http.StatusConflict:
				skipped++
			default:
				failed++
				printError(fmt.Sprintf("Game %d: %s", entry.GameID, err))
			}
		}

		printSuccess(fmt.Sprintf("Imported %d games (%d already present, %d failed)", added, skipped, failed))
		if failed > 0 {
			return fmt.Errorf("%d games could not be imported", failed)
		}
		return nil
	},
}

var libraryBatchUpdateCmd = &cobra.Command{
	Use:   "batch-update",
	Short: "Batch update library",
	Long:  `Set the status of every game listed in a file (one game ID per line).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status := models.GameStatus(batchStatus)
		if !status.Valid() {
			return fmt.Errorf("invalid status %q (use %s)", batchStatus, statusUsage())
		}

		file, err := os.Open(batchFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		ids, err := readGameIDs(file)
		if err != nil {
			return err
		}

		client, _, err := clientFromConfig(true)
		if err != nil {
			return err
		}

		updated := 0
		for _, id := range ids {
			ctx, cancel := withTimeout()
			err := client.put(ctx, fmt.Sprintf("/api/games/library/%d", id), models.UpdateEntryRequest{Status: &status}, nil)
			cancel()
			if err != nil {
				printError(fmt.Sprintf("Game %d: %s", id, err))
				continue
			}
			updated++
		}

		printSuccess(fmt.Sprintf("Updated %d of %d games to status '%s'", updated, len(ids), status))
		return nil
	},
}

func writeLibraryCSV(w io.Writer, entries []models.GameEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rating := ""
		if e.UserRating != nil {
			rating = strconv.Itoa(*e.UserRating)
		}
		completed := ""
		if e.DateCompleted != nil {
			completed = e.DateCompleted.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(e.GameID, 10),
			e.Name,
			string(e.Status),
			rating,
			strconv.FormatFloat(e.Rating, 'f', -1, 64),
			e.Released,
			strings.Join(e.Genres, "|"),
			strings.Join(e.Platforms, "|"),
			e.DateAdded.UTC().Format(time.RFC3339),
			completed,
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readLibraryJSON accepts the array written by "export library --format json".
func readLibraryJSON(r io.Reader) ([]models.AddEntryRequest, error) {
	var games []models.GameEntry
	if err := json.NewDecoder(r).Decode(&games); err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}
	out := make([]models.AddEntryRequest, 0, len(games))
	for _, g := range games {
		out = append(out, models.AddEntryRequest{
			GameID:          g.GameID,
			Name:            g.Name,
			BackgroundImage: g.BackgroundImage,
			Released:        g.Released,
			Rating:          g.Rating,
			Platforms:       g.Platforms,
			Genres:          g.Genres,
			Status:          g.Status,
			UserRating:      g.UserRating,
			Notes:           g.Notes,
		})
	}
	return out, nil
}

// readLibraryCSV accepts the columns written by "export library --format csv",
// matched by header name so column order does not matter.
func readLibraryCSV(r io.Reader) ([]models.AddEntryRequest, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := col["game_id"]; !ok {
		return nil, errors.New("CSV export is missing the game_id column")
	}
	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var out []models.AddEntryRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(field(rec, "game_id"), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("line %d: invalid game_id %q", line, field(rec, "game_id"))
		}
		entry := models.AddEntryRequest{
			GameID:    id,
			Name:      field(rec, "name"),
			Status:    models.GameStatus(field(rec, "status")),
			Released:  field(rec, "released"),
			Genres:    splitList(field(rec, "genres")),
			Platforms: splitList(field(rec, "platforms")),
			Notes:     field(rec, "notes"),
		}
		if v := field(rec, "user_rating"); v != "" {
			rating, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid user_rating %q", line, v)
			}
			entry.UserRating = &rating
		}
		if v := field(rec, "rating"); v != "" {
			if rating, err := strconv.ParseFloat(v, 64); err == nil {
				entry.Rating = rating
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func readGameIDs(r io.Reader) ([]int64, error) {
	var ids []int64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := parseGameID(line)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, scanner.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	exportLibraryCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, csv)")
	exportLibraryCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.AddCommand(exportLibraryCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "json", "Input format (json, csv)")
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file path")
	importCmd.MarkFlagRequired("input")

	libraryBatchUpdateCmd.Flags().StringVarP(&batchStatus, "status", "s", string(models.StatusPlanToPlay), "New status for all games")
	libraryBatchUpdateCmd.Flags().StringVar(&batchFile, "file", "", "File containing game IDs (one per line)")
	libraryBatchUpdateCmd.MarkFlagRequired("file")
	libraryCmd.AddCommand(libraryBatchUpdateCmd)
}
