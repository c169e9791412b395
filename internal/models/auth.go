package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and viewer info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	Viewer       Viewer    `json:"viewer"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens. The class scoping
// fields ride along so visibility filtering never needs a user lookup.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	Department string   `json:"department"`
	Year       string   `json:"year"`
	Section    string   `json:"section"`
	jwt.RegisteredClaims
}

// Viewer projects the claims onto the viewer shape used by the visibility
// filter and the session store.
func (c *JWTClaims) Viewer() *Viewer {
	if c == nil {
		return nil
	}
	return &Viewer{
		ID:         c.UserID,
		FullName:   c.FullName,
		Role:       c.Role,
		Department: c.Department,
		Year:       c.Year,
		Section:    c.Section,
	}
}
