// Package models holds the wire types the CLI client exchanges with the
// usergate REST API.
package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether u may call the admin-only endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Session is what login and refresh return.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         User   `json:"user"`
}

// StoredSession is the part of a session kept in a token store.
type StoredSession struct {
	AccessToken  string
	RefreshToken string
	User         User
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Stats struct {
	TotalUsers        int     `json:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	AdminUsers        int     `json:"adminUsers"`
	NewUsersThisMonth int     `json:"newUsersThisMonth"`
	GrowthRate        float64 `json:"growthRate"`
}

type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserInput is the body of create, update and profile requests. Nil fields
// are omitted.
type UserInput struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
}
