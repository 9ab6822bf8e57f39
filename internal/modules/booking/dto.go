package booking

import "time"

// BookingRequest is the body of POST /bookings and PUT /bookings/:id.
// On update a missing participants field keeps the stored list.
type BookingRequest struct {
	RoomID       int64     `json:"roomId" binding:"required,gt=0"`
	StartTime    time.Time `json:"startTime" binding:"required"`
	EndTime      time.Time `json:"endTime" binding:"required"`
	Participants []int64   `json:"participants" binding:"omitempty,dive,gt=0"`
}
