package repository

import (
	"context"
	"time"

	"roombooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

func toDomainRoom(m roomModel) *domain.Room {
	var description string
	if m.Description != nil {
		description = *m.Description
	}

	return &domain.Room{
		ID:          m.ID,
		Title:       m.Title,
		Description: description,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func toRoomModel(r *domain.Room) roomModel {
	var description *string
	if r.Description != "" {
		v := r.Description
		description = &v
	}

	return roomModel{
		ID:          r.ID,
		Title:       r.Title,
		Description: description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	m := toRoomModel(room)
	tx := conn(ctx, r.db).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*room = *toDomainRoom(m)
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	tx := conn(ctx, r.db).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainRoom(m), nil
}

// LockByID loads the room and, inside a transaction, holds its row lock until
// commit. SQLite has no row locks and ignores the clause.
func (r *RoomRepository) LockByID(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	tx := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainRoom(m), nil
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	var rows []roomModel
	tx := conn(ctx, r.db).Order("id").Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoom(m))
	}
	return out, nil
}

func (r *RoomRepository) Update(ctx context.Context, room *domain.Room) error {
	m := toRoomModel(room)
	tx := conn(ctx, r.db).
		Model(&roomModel{ID: room.ID}).
		Select("title", "description", "updated_at").
		Updates(&m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the room together with every booking that references it.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	if tx := db.Where("room_id = ?", id).Delete(&bookingModel{}); tx.Error != nil {
		return tx.Error
	}

	tx := db.Delete(&roomModel{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
