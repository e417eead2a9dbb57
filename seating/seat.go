// Package seating models a session's hall: which seats exist, which are
// already taken, and which ones the viewer has picked.
package seating

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cinetix-cli/model"
)

// Key is the "{row}-{number}" form of a seat used for set membership.
type Key string

type Seat struct {
	Row    int
	Number int
}

func (s Seat) Key() Key {
	return Key(fmt.Sprintf("%d-%d", s.Row, s.Number))
}

func (s Seat) String() string {
	return fmt.Sprintf("row %d, seat %d", s.Row, s.Number)
}

// Position converts the seat to its wire form.
func (s Seat) Position() model.SeatPosition {
	return model.SeatPosition{RowNumber: s.Row, SeatNumber: s.Number}
}

func SeatFromPosition(p model.SeatPosition) Seat {
	return Seat{Row: p.RowNumber, Number: p.SeatNumber}
}

var errMalformedKey = errors.New("malformed seat key")

// ParseKey is the inverse of Seat.Key.
func ParseKey(key Key) (Seat, error) {
	row, number, ok := strings.Cut(string(key), "-")
	if !ok {
		return Seat{}, fmt.Errorf("%w: %q", errMalformedKey, key)
	}
	r, err := strconv.Atoi(row)
	if err != nil || r <= 0 {
		return Seat{}, fmt.Errorf("%w: %q", errMalformedKey, key)
	}
	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return Seat{}, fmt.Errorf("%w: %q", errMalformedKey, key)
	}
	return Seat{Row: r, Number: n}, nil
}
