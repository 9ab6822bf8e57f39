package main

import (
	"context"
	"errors"
	"log"
	"time"

	"roombooking/internal/config"
	"roombooking/internal/database"
	"roombooking/internal/modules/auth"
	"roombooking/internal/modules/booking"
	"roombooking/internal/modules/catalog"
	jwtsvc "roombooking/internal/pkg/jwt"
	"roombooking/internal/pkg/keylock"
	"roombooking/internal/policy"
	"roombooking/internal/repository"
)

// Seeds a fresh database with an administrator, two users, a few rooms and
// tomorrow's bookings. Run it against an empty database: the first account it
// registers becomes the administrator.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := repository.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	tx := repository.NewTransactor(db)
	roomRepo := repository.NewRoomRepository(db)
	locks := keylock.New()

	authService := auth.NewService(repository.NewUserRepository(db), tx, jwtsvc.New(cfg.JWTSecret, jwtsvc.SessionTTL), cfg.BcryptCost)
	catalogService := catalog.NewService(roomRepo, tx, locks)
	bookingService := booking.NewService(repository.NewBookingRepository(db), roomRepo, tx, locks)

	// ================== USERS ==================
	log.Println("Creating users...")

	accounts := []auth.RegisterRequest{
		{Name: "Administrator", Email: "admin@example.com", Password: "admin123"},
		{Name: "Alice", Email: "alice@example.com", Password: "alice123"},
		{Name: "Bob", Email: "bob@example.com", Password: "bob12345"},
	}
	principals := make([]policy.Principal, 0, len(accounts))
	for _, req := range accounts {
		user, _, err := authService.Register(ctx, req)
		if errors.Is(err, auth.ErrEmailAlreadyExists) {
			log.Fatalf("%s already exists; seed expects an empty database", req.Email)
		}
		if err != nil {
			log.Fatal("register failed:", err)
		}
		principals = append(principals, policy.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
		log.Printf("  %s (%s) password=%s", user.Email, user.Role, req.Password)
	}
	admin := principals[0]
	if !admin.IsAdmin() {
		log.Fatal("first seeded account did not become Admin; database was not empty")
	}

	// ================== ROOMS ==================
	log.Println("Creating rooms...")

	roomReqs := []catalog.RoomRequest{
		{Title: "Everest", Description: "Boardroom, 12 seats, video conferencing"},
		{Title: "Kilimanjaro", Description: "Meeting room, 6 seats, whiteboard"},
		{Title: "Elbrus", Description: "Phone booth, 1 seat"},
	}
	roomIDs := make([]int64, 0, len(roomReqs))
	for _, req := range roomReqs {
		room, err := catalogService.CreateRoom(ctx, admin, req)
		if err != nil {
			log.Fatal("create room failed:", err)
		}
		roomIDs = append(roomIDs, room.ID)
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")

	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	at := func(hour int) time.Time { return tomorrow.Add(time.Duration(hour) * time.Hour) }

	bookings := []struct {
		by  policy.Principal
		req booking.BookingRequest
	}{
		{principals[1], booking.BookingRequest{RoomID: roomIDs[0], StartTime: at(9), EndTime: at(10), Participants: []int64{principals[2].ID}}},
		{principals[2], booking.BookingRequest{RoomID: roomIDs[0], StartTime: at(10), EndTime: at(11)}},
		{principals[1], booking.BookingRequest{RoomID: roomIDs[1], StartTime: at(13), EndTime: at(15)}},
		{admin, booking.BookingRequest{RoomID: roomIDs[2], StartTime: at(16), EndTime: at(17)}},
	}
	for _, b := range bookings {
		if _, err := bookingService.Create(ctx, b.by, b.req); err != nil {
			log.Fatal("create booking failed:", err)
		}
	}

	log.Printf("Seed complete: %d users, %d rooms, %d bookings", len(principals), len(roomIDs), len(bookings))
}
