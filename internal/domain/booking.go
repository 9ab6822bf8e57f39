package domain

import "time"

type Booking struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"roomId"`
	CreatorID    int64     `json:"creatorId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Participants []int64   `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Overlaps reports whether the half-open intervals [b.StartTime, b.EndTime)
// and [start, end) intersect. Intervals that only touch do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// ValidInterval reports whether start is strictly before end.
func ValidInterval(start, end time.Time) bool {
	return start.Before(end)
}
