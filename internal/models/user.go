package models

import "time"

type Role string

const (
	RoleAssessor    Role = "ASSESSOR"
	RoleCoordinator Role = "COORDINATOR"
	RoleResponder   Role = "RESPONDER"
	RoleDonor       Role = "DONOR"
	RoleAdmin       Role = "ADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAssessor, RoleCoordinator, RoleResponder, RoleDonor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Roles        []Role
	Active       bool
	CreatedAt    time.Time
}

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
