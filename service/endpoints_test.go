package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinetix-cli/model"
)

func modelCreds(username, password string) model.Credentials {
	return model.Credentials{Username: username, Password: password}
}

func jsonHandler(t *testing.T, method, path, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method || r.URL.Path != path {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestMovies_OK(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/movies", `[
  {"id": 1, "title": "Dune", "year": 2021, "rating": 8.1, "lengthMinutes": 155},
  {"id": 2, "title": "Arrival", "year": 2016}
]`))
	defer server.Close()

	movies, err := newTestClient(server).Movies(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(movies) != 2 || movies[0].Title != "Dune" || movies[0].LengthMinutes != 155 {
		t.Fatalf("unexpected movies: %+v", movies)
	}
}

func TestMovies_InvalidItemRejected(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/movies", `[{"id": 1}]`))
	defer server.Close()

	_, err := newTestClient(server).Movies(context.Background())
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestCinemaSessions_OK(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/cinemas/4/sessions", `[
  {"id": 10, "movieId": 1, "cinemaId": 4, "startTime": "2026-03-01T19:30:00Z"}
]`))
	defer server.Close()

	sessions, err := newTestClient(server).CinemaSessions(context.Background(), 4)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sessions) != 1 || sessions[0].MovieId != 1 || sessions[0].StartTime.Hour() != 19 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestSessionDetails_OK(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/movieSessions/10", `{
  "id": 10, "movieId": 1, "cinemaId": 4, "startTime": "2026-03-01T19:30:00Z",
  "seats": {"rows": 6, "seatsPerRow": 10},
  "bookedSeats": [{"rowNumber": 1, "seatNumber": 3}, {"rowNumber": 2, "seatNumber": 5}]
}`))
	defer server.Close()

	detail, err := newTestClient(server).SessionDetails(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if detail.Id != 10 || detail.Seats.Rows != 6 || detail.Seats.SeatsPerRow != 10 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if len(detail.BookedSeats) != 2 {
		t.Fatalf("expected 2 booked seats, got %d", len(detail.BookedSeats))
	}
}

func TestSessionDetails_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server).SessionDetails(context.Background(), 99)
	if !errors.Is(err, ErrSessionNotFound) || !IsNotFound(err) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreateBooking_SendsSeatsAndAcceptsMinimalResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/movieSessions/10/bookings" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected content type: %s", got)
		}
		body := readBody(t, r)
		if body != `{"seats":[{"rowNumber":3,"seatNumber":4},{"rowNumber":3,"seatNumber":5}]}` {
			t.Fatalf("unexpected body: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bookingId":"ignored","id":"b-1"}`))
	}))
	defer server.Close()

	seats := []model.SeatPosition{{RowNumber: 3, SeatNumber: 4}, {RowNumber: 3, SeatNumber: 5}}
	created, err := newTestClient(server).CreateBooking(context.Background(), 10, seats)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if created.Id != "b-1" {
		t.Fatalf("unexpected booking: %+v", created)
	}
}

func TestCreateBooking_MissingIdRejected(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodPost, "/movieSessions/10/bookings", `{}`))
	defer server.Close()

	_, err := newTestClient(server).CreateBooking(context.Background(), 10, []model.SeatPosition{{RowNumber: 1, SeatNumber: 1}})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestMyBookings_OK(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/me/bookings", `[
  {"id": "b-2", "movieSessionId": 10, "userId": 1, "isPaid": true, "seats": [{"rowNumber": 1, "seatNumber": 1}], "bookedAt": "2026-03-01T10:00:00Z"},
  {"id": "b-1", "filmSessionId": 11, "userId": 1, "isPaid": false, "seats": [{"rowNumber": 2, "seatNumber": 2}], "bookedAt": "2026-03-01T09:00:00Z"}
]`))
	defer server.Close()

	bookings, err := newTestClient(server).MyBookings(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(bookings) != 2 || bookings[0].Id != "b-2" || bookings[1].SessionId != 11 {
		t.Fatalf("unexpected bookings: %+v", bookings)
	}
}

func TestPayBooking_OK(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodPost, "/bookings/b-1/payments", `{"ok":true}`))
	defer server.Close()

	if err := newTestClient(server).PayBooking(context.Background(), "b-1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.MethodGet, "/settings", `{"bookingPaymentTimeSeconds": 900}`))
	defer server.Close()

	settings, err := newTestClient(server).Settings(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if settings.BookingPaymentTimeSeconds == nil || *settings.BookingPaymentTimeSeconds != 900 {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	missing := httptest.NewServer(jsonHandler(t, http.MethodGet, "/settings", `{}`))
	defer missing.Close()
	if _, err := newTestClient(missing).Settings(context.Background()); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for missing window, got %v", err)
	}
}

func TestRegister_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if body := readBody(t, r); !strings.Contains(body, `"email":"ann@example.com"`) {
			t.Fatalf("unexpected body: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":1,"username":"ann"}}`))
	}))
	defer server.Close()

	out, err := newTestClient(server).Register(context.Background(), model.Registration{Username: "ann", Email: "ann@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Token != "tok" || out.User.Username != "ann" {
		t.Fatalf("unexpected response: %+v", out)
	}
}
