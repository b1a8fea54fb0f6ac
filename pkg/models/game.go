package models

// Game is a catalog record as returned by the external game database.
type Game struct {
	ID              int64    `json:"id"`
	Slug            string   `json:"slug,omitempty"`
	Name            string   `json:"name"`
	BackgroundImage string   `json:"background_image"`
	Released        string   `json:"released"`
	Rating          float64  `json:"rating"`
	Platforms       []string `json:"platforms"`
	Genres          []string `json:"genres"`
}

// GameDetails extends Game with the fields only the details endpoint returns.
type GameDetails struct {
	Game
	Description string   `json:"description"`
	Website     string   `json:"website,omitempty"`
	Metacritic  int      `json:"metacritic,omitempty"`
	Playtime    int      `json:"playtime,omitempty"`
	Developers  []string `json:"developers"`
	Publishers  []string `json:"publishers"`
}

type GameSearchRequest struct {
	Search   string `form:"search" binding:"required,min=1,max=100"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=40"`
}

type GameSearchResponse struct {
	Results []Game `json:"results"`
	Count   int    `json:"count"`
}
