package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"roombooking/internal/database"
	"roombooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, users *UserRepository, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Test", Email: email, PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	createUser(t, users, "ann@example.com")

	err := users.Create(context.Background(), &domain.User{Name: "Ann", Email: " ANN@example.com", PasswordHash: "x", Role: domain.RoleUser})

	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUserRepository_GetByEmailIsCaseInsensitive(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	created := createUser(t, users, "ann@example.com")

	got, err := users.GetByEmail(context.Background(), "Ann@Example.com")

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUserRepository_ClaimAdminOnlyOnce(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	first := createUser(t, users, "first@example.com")
	second := createUser(t, users, "second@example.com")

	claimed, err := users.ClaimAdmin(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = users.ClaimAdmin(context.Background(), second.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestUserRepository_UpdateRole(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	u := createUser(t, users, "ann@example.com")

	require.NoError(t, users.UpdateRole(context.Background(), u.ID, domain.RoleAdmin))

	got, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	assert.ErrorIs(t, users.UpdateRole(context.Background(), 404, domain.RoleAdmin), gorm.ErrRecordNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	tx := NewTransactor(db)
	boom := errors.New("boom")

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		if err := users.Create(ctx, &domain.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "x", Role: domain.RoleUser}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := users.ExistsByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoomRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	rooms := NewRoomRepository(newTestDB(t))

	room := &domain.Room{Title: "Blue", Description: "projector"}
	require.NoError(t, rooms.Create(ctx, room))
	require.NotZero(t, room.ID)

	room.Title = "Green"
	room.Description = ""
	require.NoError(t, rooms.Update(ctx, room))

	got, err := rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green", got.Title)
	assert.Empty(t, got.Description)

	assert.ErrorIs(t, rooms.Update(ctx, &domain.Room{ID: 999, Title: "x"}), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, rooms.Delete(ctx, 999), gorm.ErrRecordNotFound)
}

func TestRoomRepository_DeleteCascadesToBookings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewRoomRepository(db)
	bookings := NewBookingRepository(db)
	users := NewUserRepository(db)
	u := createUser(t, users, "ann@example.com")

	doomed := &domain.Room{Title: "Doomed"}
	kept := &domain.Room{Title: "Kept"}
	require.NoError(t, rooms.Create(ctx, doomed))
	require.NoError(t, rooms.Create(ctx, kept))

	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, bookings.Create(ctx, &domain.Booking{RoomID: doomed.ID, CreatorID: u.ID, StartTime: start, EndTime: start.Add(time.Hour)}))
	require.NoError(t, bookings.Create(ctx, &domain.Booking{RoomID: kept.ID, CreatorID: u.ID, StartTime: start, EndTime: start.Add(time.Hour)}))

	require.NoError(t, NewTransactor(db).InTx(ctx, func(ctx context.Context) error {
		return rooms.Delete(ctx, doomed.ID)
	}))

	all, err := bookings.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].RoomID)
}

func TestBookingRepository_ListOrderedByStart(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewRoomRepository(db)
	bookings := NewBookingRepository(db)
	u := createUser(t, NewUserRepository(db), "ann@example.com")

	room := &domain.Room{Title: "Blue"}
	require.NoError(t, rooms.Create(ctx, room))

	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{14, 9, 11} {
		start := base.Add(time.Duration(h) * time.Hour)
		require.NoError(t, bookings.Create(ctx, &domain.Booking{RoomID: room.ID, CreatorID: u.ID, StartTime: start, EndTime: start.Add(time.Hour)}))
	}

	list, err := bookings.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 9, list[0].StartTime.Hour())
	assert.Equal(t, 11, list[1].StartTime.Hour())
	assert.Equal(t, 14, list[2].StartTime.Hour())
	assert.Equal(t, []int64{}, list[0].Participants)
}

func TestBookingRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewRoomRepository(db)
	bookings := NewBookingRepository(db)
	u := createUser(t, NewUserRepository(db), "ann@example.com")

	room := &domain.Room{Title: "Blue"}
	require.NoError(t, rooms.Create(ctx, room))

	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.Booking{RoomID: room.ID, CreatorID: u.ID, StartTime: start, EndTime: start.Add(time.Hour), Participants: []int64{u.ID}}
	require.NoError(t, bookings.Create(ctx, b))

	b.EndTime = start.Add(2 * time.Hour)
	b.Participants = []int64{}
	require.NoError(t, bookings.Update(ctx, b))

	got, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(start.Add(2*time.Hour)))
	assert.Empty(t, got.Participants)
	assert.Equal(t, u.ID, got.CreatorID)

	require.NoError(t, bookings.Delete(ctx, b.ID))
	assert.ErrorIs(t, bookings.Delete(ctx, b.ID), gorm.ErrRecordNotFound)
}
