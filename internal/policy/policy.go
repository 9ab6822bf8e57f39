// Package policy decides whether a principal may act on rooms and bookings.
// Every function is a pure predicate over the principal's token claims and
// the resource; callers must stop on ErrForbidden.
package policy

import (
	"errors"

	"roombooking/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated caller as seen by the token, not the store.
type Principal struct {
	ID    int64
	Email string
	Role  domain.UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

func CanManageRooms(p Principal) bool {
	return p.IsAdmin()
}

func CanMutateBooking(p Principal, b *domain.Booking) bool {
	if b == nil {
		return false
	}
	return p.ID == b.CreatorID || p.IsAdmin()
}

func AuthorizeRoomManagement(p Principal) error {
	if !CanManageRooms(p) {
		return ErrForbidden
	}
	return nil
}

func AuthorizeBookingMutation(p Principal, b *domain.Booking) error {
	if !CanMutateBooking(p, b) {
		return ErrForbidden
	}
	return nil
}
