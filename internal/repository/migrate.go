package repository

import (
	"fmt"

	"roombooking/internal/database"

	"gorm.io/gorm"
)

const bookingsNoOverlapConstraint = "bookings_no_overlap"

// Migrate creates or updates the schema. On PostgreSQL it also installs an
// exclusion constraint so overlapping bookings of one room are rejected by the
// database even when writers run in different processes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userModel{},
		&adminClaimModel{},
		&roomModel{},
		&bookingModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if !database.IsPostgres(db) {
		return nil
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("enable btree_gist: %w", err)
	}

	var exists int64
	if err := db.Raw(`SELECT COUNT(1) FROM pg_constraint WHERE conname = ?`, bookingsNoOverlapConstraint).
		Scan(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	q := fmt.Sprintf(`
ALTER TABLE bookings
  ADD CONSTRAINT %s
  EXCLUDE USING gist (room_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
`, bookingsNoOverlapConstraint)
	if err := db.Exec(q).Error; err != nil {
		return fmt.Errorf("add %s: %w", bookingsNoOverlapConstraint, err)
	}
	return nil
}
