package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"roombooking/internal/domain"
	"roombooking/internal/policy"

	"gorm.io/gorm"
)

type Service struct {
	rooms RoomRepository
	tx    Transactor
	locks RoomLocker
}

func NewService(rooms RoomRepository, tx Transactor, locks RoomLocker) *Service {
	return &Service{rooms: rooms, tx: tx, locks: locks}
}

func (s *Service) CreateRoom(ctx context.Context, p policy.Principal, req RoomRequest) (*domain.Room, error) {
	if err := policy.AuthorizeRoomManagement(p); err != nil {
		return nil, err
	}

	room := &domain.Room{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	log.Printf("room_created room_id=%d by=%d", room.ID, p.ID)
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.List(ctx)
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, p policy.Principal, id int64, req RoomRequest) (*domain.Room, error) {
	if err := policy.AuthorizeRoomManagement(p); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	room.Title = strings.TrimSpace(req.Title)
	room.Description = req.Description
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, notFound(err)
	}

	return s.GetRoom(ctx, id)
}

// DeleteRoom removes the room and cascades to its bookings. It holds the
// room's lock so no booking can be committed against the room mid-delete.
func (s *Service) DeleteRoom(ctx context.Context, p policy.Principal, id int64) error {
	if err := policy.AuthorizeRoomManagement(p); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.LockByID(ctx, id); err != nil {
			return notFound(err)
		}
		return s.rooms.Delete(ctx, id)
	})
	if err != nil {
		return notFound(err)
	}

	log.Printf("room_deleted room_id=%d by=%d", id, p.ID)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoomNotFound
	}
	return err
}
