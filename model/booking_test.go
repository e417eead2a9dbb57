package model

import (
	"encoding/json"
	"testing"
)

func TestBookingUnmarshal_FilmSessionAlias(t *testing.T) {
	var b Booking
	data := []byte(`{"id":"b1","filmSessionId":7,"isPaid":false,"seats":[{"rowNumber":1,"seatNumber":2}],"bookedAt":"2026-02-03T19:30:00Z"}`)
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if b.SessionId != 7 {
		t.Fatalf("expected session id 7, got %d", b.SessionId)
	}
	if len(b.Seats) != 1 || b.Seats[0].SeatNumber != 2 {
		t.Fatalf("unexpected seats: %+v", b.Seats)
	}
}

func TestBookingUnmarshal_PrefersMovieSessionId(t *testing.T) {
	var b Booking
	data := []byte(`{"id":"b1","movieSessionId":3,"filmSessionId":7,"bookedAt":"2026-02-03T19:30:00Z"}`)
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if b.SessionId != 3 {
		t.Fatalf("expected session id 3, got %d", b.SessionId)
	}
}
