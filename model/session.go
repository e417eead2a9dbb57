package model

import "time"

type MovieSession struct {
	Id        int       `json:"id" validate:"required"`
	MovieId   int       `json:"movieId"`
	CinemaId  int       `json:"cinemaId"`
	StartTime time.Time `json:"startTime" validate:"required"`
}

// SessionSeats describes the hall layout. Dimensions are checked by the
// seating package, not here, so malformed layouts surface as
// seating.ErrInvalidDimensions.
type SessionSeats struct {
	Rows        int `json:"rows"`
	SeatsPerRow int `json:"seatsPerRow"`
}

type SeatPosition struct {
	RowNumber  int `json:"rowNumber" validate:"min=1"`
	SeatNumber int `json:"seatNumber" validate:"min=1"`
}

type MovieSessionDetails struct {
	MovieSession
	Seats       SessionSeats   `json:"seats"`
	BookedSeats []SeatPosition `json:"bookedSeats" validate:"dive"`
}
