package seating

import (
	"errors"
	"testing"

	"cinetix-cli/model"
)

func TestLoad_RejectsInvalidDimensions(t *testing.T) {
	cases := []struct {
		rows, perRow int
	}{
		{0, 10},
		{6, 0},
		{-1, 5},
	}
	for _, tc := range cases {
		if _, err := Load(tc.rows, tc.perRow, nil); !errors.Is(err, ErrInvalidDimensions) {
			t.Fatalf("expected ErrInvalidDimensions for %dx%d, got %v", tc.rows, tc.perRow, err)
		}
	}
}

func TestAll_RowMajorAndRestartable(t *testing.T) {
	m, err := Load(2, 3, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	var first []Seat
	for seat := range m.All() {
		first = append(first, seat)
	}
	want := []Seat{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}, {2, 3}}
	if len(first) != len(want) {
		t.Fatalf("expected %d seats, got %d", len(want), len(first))
	}
	for i := range want {
		if first[i] != want[i] {
			t.Fatalf("seat %d: expected %+v, got %+v", i, want[i], first[i])
		}
	}

	count := 0
	for range m.All() {
		count++
	}
	if count != 6 {
		t.Fatalf("expected second range to yield 6 seats, got %d", count)
	}
}

func TestAll_StopsEarly(t *testing.T) {
	m, _ := Load(6, 10, nil)
	count := 0
	for range m.All() {
		count++
		if count == 4 {
			break
		}
	}
	if count != 4 {
		t.Fatalf("expected early stop at 4, got %d", count)
	}
}

func TestFromSession_ConvertsBookedSeats(t *testing.T) {
	detail := model.MovieSessionDetails{
		Seats: model.SessionSeats{Rows: 6, SeatsPerRow: 10},
		BookedSeats: []model.SeatPosition{
			{RowNumber: 1, SeatNumber: 3},
			{RowNumber: 2, SeatNumber: 5},
		},
	}
	m, err := FromSession(detail)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !m.IsBooked(Seat{Row: 1, Number: 3}) || !m.IsBooked(Seat{Row: 2, Number: 5}) {
		t.Fatal("expected converted seats to be booked")
	}
	if m.IsBooked(Seat{Row: 3, Number: 4}) {
		t.Fatal("expected 3-4 to be free")
	}
	if m.BookedCount() != 2 {
		t.Fatalf("expected 2 booked seats, got %d", m.BookedCount())
	}
}

func TestFromSession_InvalidDimensions(t *testing.T) {
	_, err := FromSession(model.MovieSessionDetails{})
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	seat, err := ParseKey("3-4")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if seat != (Seat{Row: 3, Number: 4}) {
		t.Fatalf("unexpected seat: %+v", seat)
	}
	if seat.Key() != "3-4" {
		t.Fatalf("expected key 3-4, got %s", seat.Key())
	}

	for _, bad := range []Key{"", "3", "a-1", "1-b", "0-1", "1--1"} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
