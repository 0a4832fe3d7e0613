// Package models holds the server-side domain types shared by repositories,
// services and the HTTP transport.
package models

import (
	"strings"
	"time"
)

// Role is the authorization level of an identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the durable identity record. PasswordHash never leaves the server;
// use Public for anything that crosses a service boundary.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the externally visible shape of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Clone returns a copy that shares no memory with u.
func (u *User) Clone() *User {
	c := *u
	return &c
}

// PublicUsers maps Public over a slice, never returning nil.
func PublicUsers(users []*User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Email        *string
	Name         *string
	Role         *Role
	PasswordHash *string
}

// Apply copies the set fields of p onto u and stamps UpdatedAt.
func (p UserPatch) Apply(u *User, now time.Time) {
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	u.UpdatedAt = now
}

// Stats is the directory aggregate served by /users/stats.
type Stats struct {
	TotalUsers        int     `json:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	AdminUsers        int     `json:"adminUsers"`
	NewUsersThisMonth int     `json:"newUsersThisMonth"`
	GrowthRate        float64 `json:"growthRate"`
}
