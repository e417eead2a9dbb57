package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"cinetix-cli/model"
)

// CreateBooking books seats for a session. It is never retried.
//
// Only the booking id is required in the response; callers fill in the
// rest from the request when the server omits it.
func (c *Client) CreateBooking(ctx context.Context, sessionID int, seats []model.SeatPosition) (model.Booking, error) {
	if sessionID <= 0 {
		return model.Booking{}, fmt.Errorf("%w: session id", errMissingParameter)
	}
	if len(seats) == 0 {
		return model.Booking{}, fmt.Errorf("%w: seats", errMissingParameter)
	}
	endpoint := fmt.Sprintf("/movieSessions/%d/bookings", sessionID)

	var created model.Booking
	if err := c.postJSON(ctx, endpoint, model.BookingRequest{Seats: seats}, &created); err != nil {
		return model.Booking{}, err
	}
	if err := c.checkStruct(endpoint, &created, "Id"); err != nil {
		return model.Booking{}, err
	}
	return created, nil
}

// PayBooking confirms payment for a booking. Success means the booking is
// paid on the server; the response body is ignored.
func (c *Client) PayBooking(ctx context.Context, bookingID string) error {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return fmt.Errorf("%w: booking id", errMissingParameter)
	}
	return c.postJSON(ctx, "/bookings/"+url.PathEscape(bookingID)+"/payments", nil, nil)
}

// MyBookings returns the signed-in user's bookings in server order.
func (c *Client) MyBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.getJSON(ctx, "/me/bookings", &bookings); err != nil {
		return nil, err
	}
	if err := checkEach(c, "/me/bookings", bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	if err := c.getJSON(ctx, "/settings", &settings); err != nil {
		return model.Settings{}, err
	}
	if err := c.checkStruct("/settings", &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}
