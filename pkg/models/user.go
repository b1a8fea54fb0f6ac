package models

import "time"

type User struct {
	ID           string      `json:"id" bson:"_id"`
	Username     string      `json:"username" bson:"username"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash string      `json:"-" bson:"password_hash"`
	Profile      Profile     `json:"profile" bson:"profile"`
	Stats        Stats       `json:"stats" bson:"stats"`
	Library      []GameEntry `json:"library,omitempty" bson:"library"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
}

type Profile struct {
	Bio            string    `json:"bio" bson:"bio"`
	FavoriteGenres []string  `json:"favorite_genres" bson:"favorite_genres"`
	JoinDate       time.Time `json:"join_date" bson:"join_date"`
}

// PublicProfile is what other users may see: no email, no library details.
type PublicProfile struct {
	Username string  `json:"username"`
	Profile  Profile `json:"profile"`
	Stats    Stats   `json:"stats"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{Username: u.Username, Profile: u.Profile, Stats: u.Stats}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"omitempty,max=255"` // Either username or email is required
	Email    string `json:"email" binding:"omitempty,email"`      // Either username or email is required
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Bio            *string  `json:"bio" binding:"omitempty,max=500"`
	FavoriteGenres []string `json:"favorite_genres" binding:"omitempty,max=10,dive,min=1,max=50"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

type UserSearchRequest struct {
	Query string `form:"q" binding:"required,min=1,max=50"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}
