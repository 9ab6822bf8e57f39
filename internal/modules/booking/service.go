package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"roombooking/internal/domain"
	"roombooking/internal/policy"
	"roombooking/internal/repository"

	"gorm.io/gorm"
)

// maxMoveAttempts bounds how often Update re-reads a booking that another
// writer moved to a different room while Update was waiting for locks.
const maxMoveAttempts = 5

const timeLayout = time.RFC3339

var errMoved = errors.New("booking moved to another room")

type Service struct {
	bookings BookingRepository
	rooms    RoomReader
	tx       Transactor
	locks    RoomLocker
}

func NewService(bookings BookingRepository, rooms RoomReader, tx Transactor, locks RoomLocker) *Service {
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		tx:       tx,
		locks:    locks,
	}
}

// Create books roomID for [req.StartTime, req.EndTime). The overlap check and
// the insert run under the room's lock, so two racing requests for the same
// slot commit at most once.
func (s *Service) Create(ctx context.Context, p policy.Principal, req BookingRequest) (*domain.Booking, error) {
	if !domain.ValidInterval(req.StartTime, req.EndTime) {
		return nil, ErrValidation
	}
	if _, err := s.rooms.GetByID(ctx, req.RoomID); err != nil {
		return nil, roomNotFound(err)
	}

	b := &domain.Booking{
		RoomID:       req.RoomID,
		CreatorID:    p.ID,
		StartTime:    req.StartTime.UTC(),
		EndTime:      req.EndTime.UTC(),
		Participants: normalizeParticipants(req.Participants),
	}

	unlock := s.locks.Lock(b.RoomID)
	defer unlock()

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.LockByID(ctx, b.RoomID); err != nil {
			return roomNotFound(err)
		}
		if err := s.checkOverlap(ctx, b.RoomID, 0, b.StartTime, b.EndTime); err != nil {
			return err
		}
		return s.bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, conflict(err)
	}

	log.Printf("booking_created booking_id=%d room_id=%d by=%d start=%s end=%s",
		b.ID, b.RoomID, p.ID, b.StartTime.Format(timeLayout), b.EndTime.Format(timeLayout))
	return b, nil
}

// Update moves or resizes a booking. Both the current and the target room are
// locked for the duration of the overlap check and the write.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, req BookingRequest) (*domain.Booking, error) {
	for attempt := 0; attempt < maxMoveAttempts; attempt++ {
		b, err := s.update(ctx, p, id, req)
		if errors.Is(err, errMoved) {
			continue
		}
		return b, err
	}
	return nil, ErrConcurrentUpdate
}

func (s *Service) update(ctx context.Context, p policy.Principal, id int64, req BookingRequest) (*domain.Booking, error) {
	existing, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, bookingNotFound(err)
	}
	if err := policy.AuthorizeBookingMutation(p, existing); err != nil {
		return nil, err
	}
	if !domain.ValidInterval(req.StartTime, req.EndTime) {
		return nil, ErrValidation
	}
	if _, err := s.rooms.GetByID(ctx, req.RoomID); err != nil {
		return nil, roomNotFound(err)
	}

	unlock := s.locks.Lock(existing.RoomID, req.RoomID)
	defer unlock()

	var updated *domain.Booking
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.bookings.LockByID(ctx, id)
		if err != nil {
			return bookingNotFound(err)
		}
		if current.RoomID != existing.RoomID {
			return errMoved
		}
		if _, err := s.rooms.LockByID(ctx, req.RoomID); err != nil {
			return roomNotFound(err)
		}

		start, end := req.StartTime.UTC(), req.EndTime.UTC()
		if err := s.checkOverlap(ctx, req.RoomID, id, start, end); err != nil {
			return err
		}

		current.RoomID = req.RoomID
		current.StartTime = start
		current.EndTime = end
		if req.Participants != nil {
			current.Participants = normalizeParticipants(req.Participants)
		}
		if err := s.bookings.Update(ctx, current); err != nil {
			return bookingNotFound(err)
		}

		updated, err = s.bookings.GetByID(ctx, id)
		return bookingNotFound(err)
	})
	if err != nil {
		return nil, conflict(err)
	}

	log.Printf("booking_updated booking_id=%d room_id=%d by=%d start=%s end=%s",
		updated.ID, updated.RoomID, p.ID, updated.StartTime.Format(timeLayout), updated.EndTime.Format(timeLayout))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	existing, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return bookingNotFound(err)
	}
	if err := policy.AuthorizeBookingMutation(p, existing); err != nil {
		return err
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return bookingNotFound(err)
	}

	log.Printf("booking_deleted booking_id=%d room_id=%d by=%d", id, existing.RoomID, p.ID)
	return nil
}

// List returns every booking ordered by start time.
func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

// ListByRoom returns the room's schedule ordered by start time.
func (s *Service) ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, roomNotFound(err)
	}
	return s.bookings.ListByRoom(ctx, roomID)
}

// checkOverlap fails with ErrConflict when [start, end) intersects any booking
// of roomID other than exclude.
func (s *Service) checkOverlap(ctx context.Context, roomID, exclude int64, start, end time.Time) error {
	existing, err := s.bookings.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("load room bookings: %w", err)
	}
	for i := range existing {
		if existing[i].ID == exclude {
			continue
		}
		if existing[i].Overlaps(start, end) {
			return ErrConflict
		}
	}
	return nil
}

func normalizeParticipants(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int64{}
	}
	return out
}

func roomNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoomNotFound
	}
	return err
}

func bookingNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookingNotFound
	}
	return err
}

// conflict folds the storage-level overlap rejection into ErrConflict.
func conflict(err error) error {
	if errors.Is(err, repository.ErrOverlap) {
		return ErrConflict
	}
	return err
}
