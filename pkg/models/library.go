package models

import "time"

type GameStatus string

const (
	StatusPlaying    GameStatus = "playing"
	StatusCompleted  GameStatus = "completed"
	StatusDropped    GameStatus = "dropped"
	StatusPlanToPlay GameStatus = "plan-to-play"
)

// GameStatuses lists the lifecycle states in display order.
var GameStatuses = []GameStatus{StatusPlaying, StatusCompleted, StatusDropped, StatusPlanToPlay}

func (s GameStatus) Valid() bool {
	for _, st := range GameStatuses {
		if s == st {
			return true
		}
	}
	return false
}

const (
	MinUserRating = 1
	MaxUserRating = 10
	MaxNotesLen   = 500
)

// GameEntry is one tracked game in a user's library. Display metadata is
// copied from the catalog when the entry is added and never refreshed.
type GameEntry struct {
	GameID          int64      `json:"game_id" bson:"game_id"`
	Name            string     `json:"name" bson:"name"`
	BackgroundImage string     `json:"background_image" bson:"background_image"`
	Released        string     `json:"released" bson:"released"`
	Rating          float64    `json:"rating" bson:"rating"`
	Platforms       []string   `json:"platforms" bson:"platforms"`
	Genres          []string   `json:"genres" bson:"genres"`
	Status          GameStatus `json:"status" bson:"status"`
	UserRating      *int       `json:"user_rating" bson:"user_rating,omitempty"`
	DateAdded       time.Time  `json:"date_added" bson:"date_added"`
	DateCompleted   *time.Time `json:"date_completed" bson:"date_completed,omitempty"`
	Notes           string     `json:"notes" bson:"notes"`
}

type Stats struct {
	TotalGames     int     `json:"total_games" bson:"total_games"`
	CompletedGames int     `json:"completed_games" bson:"completed_games"`
	AverageRating  float64 `json:"average_rating" bson:"average_rating"`
}

type StatsResponse struct {
	Stats
	ByStatus map[GameStatus]int `json:"by_status"`
}

type AddEntryRequest struct {
	GameID          int64      `json:"game_id" binding:"required,gt=0"`
	Name            string     `json:"name" binding:"omitempty,max=255"`
	BackgroundImage string     `json:"background_image" binding:"omitempty,max=1024"`
	Released        string     `json:"released" binding:"omitempty,max=32"`
	Rating          float64    `json:"rating" binding:"omitempty,min=0,max=5"`
	Platforms       []string   `json:"platforms" binding:"omitempty,max=50"`
	Genres          []string   `json:"genres" binding:"omitempty,max=50"`
	Status          GameStatus `json:"status" binding:"omitempty,oneof=playing completed dropped plan-to-play"`
	UserRating      *int       `json:"user_rating" binding:"omitempty,min=1,max=10"`
	Notes           string     `json:"notes" binding:"omitempty,max=500"`
}

// UpdateEntryRequest carries only the fields to change; nil means "leave as is".
type UpdateEntryRequest struct {
	Status     *GameStatus `json:"status" binding:"omitempty,oneof=playing completed dropped plan-to-play"`
	UserRating *int        `json:"user_rating" binding:"omitempty,min=1,max=10"`
	Notes      *string     `json:"notes" binding:"omitempty,max=500"`
}

type ListLibraryRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=playing completed dropped plan-to-play"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name rating userRating dateAdded dateCompleted"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type LibraryResponse struct {
	Games []GameEntry `json:"games"`
	Count int         `json:"count"`
	Stats Stats       `json:"stats"`
}

type EntryResponse struct {
	Message string    `json:"message"`
	Entry   GameEntry `json:"entry"`
	Stats   Stats     `json:"stats"`
}
