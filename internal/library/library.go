package library

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/models"
)

var (
	ErrDuplicateEntry  = errors.New("game already in library")
	ErrEntryNotFound   = errors.New("game not in library")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidRating   = errors.New("user rating must be between 1 and 10")
	ErrNotesTooLong    = errors.New("notes must be at most 500 characters")
	ErrInvalidSortKey  = errors.New("invalid sort key")
	ErrInvalidOrder    = errors.New("invalid sort order")
	ErrInvalidGameID   = errors.New("game id must be positive")
	ErrMissingGameName = errors.New("game name is required")
)

type SortKey string

const (
	SortByName SortKey = "name"
	// SortByRating orders by the catalog (RAWG) rating; SortByUserRating by
	// the player's own score.
	SortByRating        SortKey = "rating"
	SortByUserRating    SortKey = "userRating"
	SortByDateAdded     SortKey = "dateAdded"
	SortByDateCompleted SortKey = "dateCompleted"
)

type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// ListOptions selects and orders library entries. Zero values mean no
// status filter, sort by date added, newest first.
type ListOptions struct {
	Status models.GameStatus
	SortBy SortKey
	Order  Order
}

func validateEntry(e *models.GameEntry) error {
	if e.GameID <= 0 {
		return ErrInvalidGameID
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingGameName
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	if e.UserRating != nil && (*e.UserRating < models.MinUserRating || *e.UserRating > models.MaxUserRating) {
		return ErrInvalidRating
	}
	if len([]rune(e.Notes)) > models.MaxNotesLen {
		return ErrNotesTooLong
	}
	return nil
}

func indexOf(entries []models.GameEntry, gameID int64) int {
	for i := range entries {
		if entries[i].GameID == gameID {
			return i
		}
	}
	return -1
}

// Find returns the entry for gameID.
func Find(entries []models.GameEntry, gameID int64) (*models.GameEntry, error) {
	i := indexOf(entries, gameID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	e := entries[i]
	return &e, nil
}

// AddEntry appends entry to the library. The entry's DateAdded is set to now
// and DateCompleted follows its status.
func AddEntry(entries []models.GameEntry, entry models.GameEntry, now time.Time) ([]models.GameEntry, error) {
	if entry.Status == "" {
		entry.Status = models.StatusPlanToPlay
	}
	if err := validateEntry(&entry); err != nil {
		return entries, err
	}
	if indexOf(entries, entry.GameID) >= 0 {
		return entries, ErrDuplicateEntry
	}

	entry.DateAdded = now
	entry.DateCompleted = nil
	if entry.Status == models.StatusCompleted {
		completed := now
		entry.DateCompleted = &completed
	}
	if entry.Platforms == nil {
		entry.Platforms = []string{}
	}
	if entry.Genres == nil {
		entry.Genres = []string{}
	}

	return append(entries, entry), nil
}

// UpdateEntry merges the non-nil fields of patch into the entry for gameID.
// Moving into completed stamps now; moving out of completed clears the stamp.
func UpdateEntry(entries []models.GameEntry, gameID int64, patch models.UpdateEntryRequest, now time.Time) (*models.GameEntry, error) {
	i := indexOf(entries, gameID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}

	updated := entries[i]
	if patch.Status != nil {
		prev := updated.Status
		updated.Status = *patch.Status
		switch {
		case updated.Status == models.StatusCompleted && prev != models.StatusCompleted:
			completed := now
			updated.DateCompleted = &completed
		case updated.Status != models.StatusCompleted:
			updated.DateCompleted = nil
		}
	}
	if patch.UserRating != nil {
		rating := *patch.UserRating
		updated.UserRating = &rating
	}
	if patch.Notes != nil {
		updated.Notes = *patch.Notes
	}

	if err := validateEntry(&updated); err != nil {
		return nil, err
	}

	entries[i] = updated
	return &updated, nil
}

// RemoveEntry deletes the entry for gameID, keeping the order of the rest.
func RemoveEntry(entries []models.GameEntry, gameID int64) ([]models.GameEntry, error) {
	i := indexOf(entries, gameID)
	if i < 0 {
		return entries, ErrEntryNotFound
	}
	return append(entries[:i], entries[i+1:]...), nil
}

// ComputeStats derives the aggregate stats from scratch.
func ComputeStats(entries []models.GameEntry) models.Stats {
	stats := models.Stats{TotalGames: len(entries)}

	ratingSum, rated := 0, 0
	for _, e := range entries {
		if e.Status != models.StatusCompleted {
			continue
		}
		stats.CompletedGames++
		if e.UserRating != nil {
			ratingSum += *e.UserRating
			rated++
		}
	}
	if rated > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(rated)*10) / 10
	}
	return stats
}

// CountByStatus returns the number of entries in every lifecycle state.
func CountByStatus(entries []models.GameEntry) map[models.GameStatus]int {
	counts := make(map[models.GameStatus]int, len(models.GameStatuses))
	for _, st := range models.GameStatuses {
		counts[st] = 0
	}
	for _, e := range entries {
		counts[e.Status]++
	}
	return counts
}

// ParseListOptions validates raw query values; empty strings select defaults.
func ParseListOptions(status, sortBy, order string) (ListOptions, error) {
	opts := ListOptions{
		Status: models.GameStatus(status),
		SortBy: SortKey(sortBy),
		Order:  Order(order),
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return opts, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	switch opts.SortBy {
	case "":
		opts.SortBy = SortByDateAdded
	case SortByName, SortByRating, SortByUserRating, SortByDateAdded, SortByDateCompleted:
	default:
		return opts, fmt.Errorf("%w: %q", ErrInvalidSortKey, sortBy)
	}
	switch opts.Order {
	case "":
		opts.Order = Descending
	case Ascending, Descending:
	default:
		return opts, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}
	return opts, nil
}

// List filters and sorts a copy of entries. Ties keep library order.
func List(entries []models.GameEntry, opts ListOptions) []models.GameEntry {
	out := make([]models.GameEntry, 0, len(entries))
	for _, e := range entries {
		if opts.Status == "" || e.Status == opts.Status {
			out = append(out, e)
		}
	}

	cmp := comparator(opts.SortBy)
	if opts.Order == Ascending {
		sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) > 0 })
	}
	return out
}

func comparator(key SortKey) func(a, b models.GameEntry) int {
	switch key {
	case SortByName:
		return func(a, b models.GameEntry) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByRating:
		return func(a, b models.GameEntry) int { return compareFloat(a.Rating, b.Rating) }
	case SortByUserRating:
		return func(a, b models.GameEntry) int {
			return compareFloat(float64(intOrZero(a.UserRating)), float64(intOrZero(b.UserRating)))
		}
	case SortByDateCompleted:
		return func(a, b models.GameEntry) int {
			return compareTime(timeOrZero(a.DateCompleted), timeOrZero(b.DateCompleted))
		}
	default:
		return func(a, b models.GameEntry) int { return compareTime(a.DateAdded, b.DateAdded) }
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func timeOrZero(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
