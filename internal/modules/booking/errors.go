package booking

import "errors"

var (
	ErrValidation      = errors.New("start time must be before end time")
	ErrRoomNotFound    = errors.New("room not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrConflict        = errors.New("booking overlaps an existing booking")

	// ErrConcurrentUpdate means the booking kept moving between rooms under
	// concurrent updates and Update gave up re-reading it.
	ErrConcurrentUpdate = errors.New("booking was changed concurrently")
)
