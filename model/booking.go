package model

import (
	"encoding/json"
	"time"
)

// Booking is the client copy of a server-owned booking. It may be stale once
// the payment window has elapsed.
type Booking struct {
	Id        string         `json:"id" validate:"required"`
	SessionId int            `json:"movieSessionId"`
	UserId    int            `json:"userId"`
	IsPaid    bool           `json:"isPaid"`
	Seats     []SeatPosition `json:"seats" validate:"dive"`
	BookedAt  time.Time      `json:"bookedAt" validate:"required"`
}

type BookingRequest struct {
	Seats []SeatPosition `json:"seats"`
}

// Pending reports whether the booking still awaits payment.
func (b Booking) Pending() bool {
	return !b.IsPaid
}

// UnmarshalJSON accepts filmSessionId as an alias of movieSessionId; older
// API builds still emit it.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var wire struct {
		plain
		FilmSessionId int `json:"filmSessionId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = Booking(wire.plain)
	if b.SessionId == 0 {
		b.SessionId = wire.FilmSessionId
	}
	return nil
}
