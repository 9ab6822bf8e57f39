package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"modernc.org/sqlite"
)

var (
	// ErrDuplicateKey is returned when an insert or update violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrOverlap is returned when the bookings exclusion constraint rejects a write.
	ErrOverlap = errors.New("overlapping booking")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// translateError maps driver specific constraint failures onto repository errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateKey
		case pgExclusionViolation:
			return ErrOverlap
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return ErrDuplicateKey
		}
	}
	return err
}
