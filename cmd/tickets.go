package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cinetix-cli/booking"
	"cinetix-cli/model"
	"cinetix-cli/seating"
)

var errSignedOut = errors.New("not signed in, run \"cinetix login\" first")

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List your bookings",
	Long:  `List unpaid, upcoming and past bookings. Unpaid bookings show the time left to pay.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()
		if !state.Auth.IsAuthenticated() {
			return errSignedOut
		}

		now := time.Now()
		buckets, err := currentTickets(context.Background(), state.Bookings, now)
		if err != nil {
			return err
		}
		renderTickets(cmd.OutOrStdout(), buckets, state.Bookings.Window(), now)
		return nil
	},
}

var payCmd = &cobra.Command{
	Use:   "pay <booking-id>",
	Short: "Confirm payment for a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()
		if !state.Auth.IsAuthenticated() {
			return errSignedOut
		}

		ctx := context.Background()
		if _, err := state.Bookings.FetchAll(ctx); err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		bookings, err := state.Bookings.ConfirmPayment(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is paid. You have %d booking(s).\n", args[0], len(bookings))
		return nil
	},
}

// currentTickets refetches bookings and settings, then leaves out unpaid
// bookings whose payment window has already closed.
func currentTickets(ctx context.Context, bookings *booking.Lifecycle, now time.Time) (booking.Buckets, error) {
	if err := bookings.Refresh(ctx); err != nil {
		return booking.Buckets{}, fmt.Errorf("load bookings: %w", err)
	}
	bookings.ExpireElapsed(now)
	return bookings.Categorize(now), nil
}

func renderTickets(w io.Writer, buckets booking.Buckets, window booking.PaymentWindow, now time.Time) {
	if buckets.Len() == 0 {
		fmt.Fprintln(w, "No bookings yet.")
		return
	}

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Status", "Booking", "Session", "Seats", "Booked at", "Pay within"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 4, WidthMax: 30},
	})
	t.Style().Options.SeparateRows = true

	sections := []struct {
		name     string
		bookings []model.Booking
	}{
		{"Unpaid", buckets.Unpaid},
		{"Upcoming", buckets.Future},
		{"Past", buckets.Past},
	}
	for _, section := range sections {
		if len(section.bookings) == 0 {
			continue
		}
		var items []table.Row
		for _, b := range section.bookings {
			items = append(items, table.Row{
				section.name,
				b.Id,
				b.SessionId,
				seatList(b.Seats),
				b.BookedAt.Local().Format("2006-01-02 15:04"),
				payWithin(b, window, now),
			})
		}
		t.AppendRows(items, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()
}

func payWithin(b model.Booking, window booking.PaymentWindow, now time.Time) string {
	if b.IsPaid {
		return "paid"
	}
	deadline, ok := booking.Deadline(b.BookedAt, window)
	if !ok {
		return ""
	}
	return booking.FormatRemaining(booking.Remaining(deadline, now))
}

func seatList(seats []model.SeatPosition) string {
	parts := make([]string, 0, len(seats))
	for _, p := range seats {
		parts = append(parts, seating.SeatFromPosition(p).String())
	}
	return strings.Join(parts, "; ")
}
