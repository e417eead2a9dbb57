package seating

import (
	"errors"
	"fmt"
	"iter"

	"cinetix-cli/model"
)

// ErrInvalidDimensions is returned when a hall layout has no rows or no seats
// per row.
var ErrInvalidDimensions = errors.New("invalid seat map dimensions")

// SeatMap is the physical layout of one session plus the seats the server
// reports as booked. It is built once per fetch and never mutated.
type SeatMap struct {
	rows        int
	seatsPerRow int
	booked      map[Key]struct{}
}

// Load builds a seat map. Booked keys outside the layout are kept; they
// simply never match a seat produced by All.
func Load(rows int, seatsPerRow int, booked []Key) (SeatMap, error) {
	if rows <= 0 || seatsPerRow <= 0 {
		return SeatMap{}, fmt.Errorf("%w: rows=%d seatsPerRow=%d", ErrInvalidDimensions, rows, seatsPerRow)
	}
	set := make(map[Key]struct{}, len(booked))
	for _, key := range booked {
		set[key] = struct{}{}
	}
	return SeatMap{rows: rows, seatsPerRow: seatsPerRow, booked: set}, nil
}

// FromSession converts a session detail response into a seat map.
func FromSession(detail model.MovieSessionDetails) (SeatMap, error) {
	keys := make([]Key, 0, len(detail.BookedSeats))
	for _, seat := range detail.BookedSeats {
		keys = append(keys, SeatFromPosition(seat).Key())
	}
	return Load(detail.Seats.Rows, detail.Seats.SeatsPerRow, keys)
}

func (m SeatMap) Rows() int {
	return m.rows
}

func (m SeatMap) SeatsPerRow() int {
	return m.seatsPerRow
}

func (m SeatMap) Capacity() int {
	return m.rows * m.seatsPerRow
}

func (m SeatMap) IsBooked(seat Seat) bool {
	_, ok := m.booked[seat.Key()]
	return ok
}

// Contains reports whether the seat lies inside the layout.
func (m SeatMap) Contains(seat Seat) bool {
	return seat.Row >= 1 && seat.Row <= m.rows && seat.Number >= 1 && seat.Number <= m.seatsPerRow
}

// BookedCount counts booked seats that lie inside the layout.
func (m SeatMap) BookedCount() int {
	count := 0
	for seat := range m.All() {
		if m.IsBooked(seat) {
			count++
		}
	}
	return count
}

// All yields every seat in row-major order. Each range starts over.
func (m SeatMap) All() iter.Seq[Seat] {
	return func(yield func(Seat) bool) {
		for row := 1; row <= m.rows; row++ {
			for number := 1; number <= m.seatsPerRow; number++ {
				if !yield(Seat{Row: row, Number: number}) {
					return
				}
			}
		}
	}
}
