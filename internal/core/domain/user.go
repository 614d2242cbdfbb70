package domain

import "time"

// User is the identity record persisted for every account. PasswordHash and
// RefreshToken never leave the service layer; outward responses use Profile.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
	RefreshToken  string
	WatchHistory  []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the sanitized projection of a User: no password hash, no refresh
// token, no watch history.
type Profile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sanitize returns the outward-facing projection of u.
func (u *User) Sanitize() *Profile {
	return &Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// TokenPair groups the credentials issued on login and refresh. It is never
// persisted as a whole; only the refresh token is stored, in a single slot on
// the user record.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
