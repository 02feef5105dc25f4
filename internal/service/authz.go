package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Actor is the authenticated caller of a service operation. The zero value is a guest.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) Guest() bool { return a.ID == uuid.Nil }

func (a Actor) IsAdmin() bool { return !a.Guest() && a.Role == models.RoleAdmin }

var roleRank = map[string]int{
	models.RoleUser:  1,
	models.RoleStaff: 2,
	models.RoleAdmin: 3,
}

func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Authorize fails unless the actor holds at least the required role.
func Authorize(a Actor, required string) error {
	if a.Guest() {
		return fmt.Errorf("login required: %w", ErrUnauthorized)
	}
	if roleRank[a.Role] < roleRank[required] {
		return fmt.Errorf("%s role required: %w", required, ErrUnauthorized)
	}
	return nil
}

// CanManage allows the owner of a resource or an admin.
func CanManage(a Actor, owner uuid.UUID) error {
	if a.Guest() {
		return fmt.Errorf("login required: %w", ErrUnauthorized)
	}
	if a.ID == owner || a.Role == models.RoleAdmin {
		return nil
	}
	return fmt.Errorf("not the owner: %w", ErrUnauthorized)
}
