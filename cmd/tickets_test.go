package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cinetix-cli/booking"
	"cinetix-cli/model"
)

func TestRenderTickets_Sections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	buckets := booking.Categorize([]model.Booking{
		{Id: "unpaid-1", SessionId: 4, BookedAt: now.Add(-5 * time.Minute), Seats: []model.SeatPosition{{RowNumber: 3, SeatNumber: 4}}},
		{Id: "past-1", SessionId: 5, IsPaid: true, BookedAt: now.Add(-time.Hour)},
	}, now, nil)

	var buf bytes.Buffer
	renderTickets(&buf, buckets, booking.WindowFromSeconds(900), now)
	out := buf.String()

	for _, want := range []string{"Unpaid", "Past", "unpaid-1", "past-1", "row 3, seat 4", "10:00", "paid"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Upcoming") {
		t.Fatalf("expected empty section to be skipped:\n%s", out)
	}
}

func TestRenderTickets_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderTickets(&buf, booking.Buckets{}, booking.PaymentWindow{}, time.Now())
	if !strings.Contains(buf.String(), "No bookings yet.") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPayWithin_UnknownWindowRendersNothing(t *testing.T) {
	b := model.Booking{Id: "b", BookedAt: time.Now()}
	if got := payWithin(b, booking.PaymentWindow{}, time.Now()); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

type stubBookingAPI struct {
	bookings       []model.Booking
	paymentSeconds int
}

func (s stubBookingAPI) CreateBooking(context.Context, int, []model.SeatPosition) (model.Booking, error) {
	return model.Booking{}, nil
}

func (s stubBookingAPI) PayBooking(context.Context, string) error { return nil }

func (s stubBookingAPI) MyBookings(context.Context) ([]model.Booking, error) {
	return s.bookings, nil
}

func (s stubBookingAPI) Settings(context.Context) (model.Settings, error) {
	seconds := s.paymentSeconds
	return model.Settings{BookingPaymentTimeSeconds: &seconds}, nil
}

func TestCurrentTickets_HidesClosedPaymentWindow(t *testing.T) {
	now := time.Now()
	api := stubBookingAPI{
		bookings: []model.Booking{
			{Id: "late", SessionId: 1, BookedAt: now.Add(-1000 * time.Second)},
			{Id: "fresh", SessionId: 1, BookedAt: now.Add(-60 * time.Second)},
		},
		paymentSeconds: 900,
	}
	lifecycle := booking.NewLifecycle(api)

	buckets, err := currentTickets(context.Background(), lifecycle, now)
	if err != nil {
		t.Fatalf("current tickets: %v", err)
	}
	if len(buckets.Unpaid) != 1 || buckets.Unpaid[0].Id != "fresh" {
		t.Fatalf("expected only fresh unpaid, got %+v", buckets.Unpaid)
	}

	var buf bytes.Buffer
	renderTickets(&buf, buckets, lifecycle.Window(), now)
	if out := buf.String(); strings.Contains(out, "late") {
		t.Fatalf("expected closed booking to be left out:\n%s", out)
	}
}
