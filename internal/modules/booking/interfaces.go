package booking

import (
	"context"

	"roombooking/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	LockByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	Delete(ctx context.Context, id int64) error
}

// RoomReader is the slice of the room store the engine needs.
type RoomReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	LockByID(ctx context.Context, id int64) (*domain.Room, error)
}

type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RoomLocker interface {
	Lock(keys ...int64) (unlock func())
}
