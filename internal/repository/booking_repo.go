package repository

import (
	"context"
	"time"

	"roombooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	RoomID       int64     `gorm:"column:room_id;not null;index:idx_bookings_room_start,priority:1"`
	CreatorID    int64     `gorm:"column:creator_id;not null;index"`
	StartTime    time.Time `gorm:"column:start_time;not null;index:idx_bookings_room_start,priority:2"`
	EndTime      time.Time `gorm:"column:end_time;not null"`
	Participants []int64   `gorm:"column:participants;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	participants := m.Participants
	if participants == nil {
		participants = []int64{}
	}

	return &domain.Booking{
		ID:           m.ID,
		RoomID:       m.RoomID,
		CreatorID:    m.CreatorID,
		StartTime:    m.StartTime.UTC(),
		EndTime:      m.EndTime.UTC(),
		Participants: participants,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:           b.ID,
		RoomID:       b.RoomID,
		CreatorID:    b.CreatorID,
		StartTime:    b.StartTime.UTC(),
		EndTime:      b.EndTime.UTC(),
		Participants: b.Participants,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := conn(ctx, r.db).Create(&m)
	if tx.Error != nil {
		return translateError(tx.Error)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := conn(ctx, r.db).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// LockByID is GetByID holding the booking's row lock until the surrounding
// transaction ends.
func (r *BookingRepository) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := conn(ctx, r.db).Order("start_time").Order("id").Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

func (r *BookingRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := conn(ctx, r.db).
		Where("room_id = ?", roomID).
		Order("start_time").
		Order("id").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := conn(ctx, r.db).
		Model(&bookingModel{ID: b.ID}).
		Select("room_id", "start_time", "end_time", "participants", "updated_at").
		Updates(&m)
	if tx.Error != nil {
		return translateError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	tx := conn(ctx, r.db).Delete(&bookingModel{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
