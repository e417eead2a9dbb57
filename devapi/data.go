package devapi

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cinetix-cli/model"
)

var (
	errNotFound      = errors.New("not found")
	errUserExists    = errors.New("username already taken")
	errBadLogin      = errors.New("invalid username or password")
	errSeatTaken     = errors.New("seat already booked")
	errSeatOutside   = errors.New("seat is outside the hall")
	errNoSeats       = errors.New("select at least one seat")
	errAlreadyPaid   = errors.New("booking is already paid")
	errWindowElapsed = errors.New("payment window has elapsed")
)

type user struct {
	model.User
	passwordHash []byte
}

type hall struct {
	session model.MovieSession
	seats   model.SessionSeats
}

// data is the in-memory backing store of the dev server.
type data struct {
	mu         sync.Mutex
	now        func() time.Time
	window     time.Duration
	bcryptCost int

	movies   []model.Movie
	cinemas  []model.Cinema
	sessions []hall
	users    map[string]*user
	nextUser int
	bookings []model.Booking
}

func newData(now func() time.Time, window time.Duration, bcryptCost int) *data {
	return &data{
		now:        now,
		window:     window,
		bcryptCost: bcryptCost,
		users:      map[string]*user{},
		nextUser:   1,
	}
}

// seed fills the catalog with a few films and a week of screenings
// starting tomorrow.
func (d *data) seed() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.movies = []model.Movie{
		{Id: 1, Title: "Dune: Part Two", Year: 2024, Rating: 8.5, LengthMinutes: 166, Description: "Paul Atreides unites with the Fremen."},
		{Id: 2, Title: "Arrival", Year: 2016, Rating: 7.9, LengthMinutes: 116, Description: "A linguist works to talk with visitors."},
		{Id: 3, Title: "Blade Runner 2049", Year: 2017, Rating: 8.0, LengthMinutes: 164, Description: "A blade runner unearths a long-buried secret."},
	}
	d.cinemas = []model.Cinema{
		{Id: 1, Name: "Aurora", Address: "12 Nevsky Ave"},
		{Id: 2, Name: "Meridian", Address: "3 Harbor St"},
	}

	day := d.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	id := 1
	for offset := range 7 {
		date := day.Add(time.Duration(offset) * 24 * time.Hour)
		for _, c := range d.cinemas {
			for i, m := range d.movies {
				start := date.Add(time.Duration(12+3*i+c.Id) * time.Hour)
				d.sessions = append(d.sessions, hall{
					session: model.MovieSession{Id: id, MovieId: m.Id, CinemaId: c.Id, StartTime: start},
					seats:   model.SessionSeats{Rows: 6 + c.Id*2, SeatsPerRow: 10 + i*2},
				})
				id++
			}
		}
	}
}

func (d *data) register(reg model.Registration) (model.User, error) {
	username := strings.TrimSpace(reg.Username)
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), d.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := d.users[key]; ok {
		return model.User{}, errUserExists
	}
	u := &user{
		User:         model.User{Id: d.nextUser, Username: username, Email: strings.TrimSpace(reg.Email)},
		passwordHash: hash,
	}
	d.nextUser++
	d.users[key] = u
	return u.User, nil
}

func (d *data) login(creds model.Credentials) (model.User, error) {
	d.mu.Lock()
	u, ok := d.users[strings.ToLower(strings.TrimSpace(creds.Username))]
	d.mu.Unlock()
	if !ok {
		return model.User{}, errBadLogin
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)) != nil {
		return model.User{}, errBadLogin
	}
	return u.User, nil
}

func (d *data) listMovies() []model.Movie {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.movies)
}

func (d *data) movie(id int) (model.Movie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.movies {
		if m.Id == id {
			return m, nil
		}
	}
	return model.Movie{}, errNotFound
}

func (d *data) listCinemas() []model.Cinema {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.cinemas)
}

func (d *data) cinemaExists(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.ContainsFunc(d.cinemas, func(c model.Cinema) bool { return c.Id == id })
}

func (d *data) sessionsWhere(keep func(model.MovieSession) bool) []model.MovieSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []model.MovieSession{}
	for _, h := range d.sessions {
		if keep(h.session) {
			out = append(out, h.session)
		}
	}
	return out
}

func (d *data) sessionDetails(id int) (model.MovieSessionDetails, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked()
	h, ok := d.hallLocked(id)
	if !ok {
		return model.MovieSessionDetails{}, errNotFound
	}
	return model.MovieSessionDetails{
		MovieSession: h.session,
		Seats:        h.seats,
		BookedSeats:  d.takenLocked(id),
	}, nil
}

func (d *data) book(userID, sessionID int, seats []model.SeatPosition) (model.Booking, error) {
	if len(seats) == 0 {
		return model.Booking{}, errNoSeats
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked()
	h, ok := d.hallLocked(sessionID)
	if !ok {
		return model.Booking{}, errNotFound
	}

	taken := map[model.SeatPosition]bool{}
	for _, p := range d.takenLocked(sessionID) {
		taken[p] = true
	}
	for _, p := range seats {
		if p.RowNumber < 1 || p.RowNumber > h.seats.Rows || p.SeatNumber < 1 || p.SeatNumber > h.seats.SeatsPerRow {
			return model.Booking{}, fmt.Errorf("%w: row %d, seat %d", errSeatOutside, p.RowNumber, p.SeatNumber)
		}
		if taken[p] {
			return model.Booking{}, fmt.Errorf("%w: row %d, seat %d", errSeatTaken, p.RowNumber, p.SeatNumber)
		}
		taken[p] = true
	}

	b := model.Booking{
		Id:        uuid.NewString(),
		SessionId: sessionID,
		UserId:    userID,
		Seats:     slices.Clone(seats),
		BookedAt:  d.now().UTC(),
	}
	d.bookings = append(d.bookings, b)
	return b, nil
}

func (d *data) pay(userID int, bookingID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.bookings {
		b := &d.bookings[i]
		if b.Id != bookingID || b.UserId != userID {
			continue
		}
		if b.IsPaid {
			return errAlreadyPaid
		}
		if d.elapsedLocked(*b) {
			return errWindowElapsed
		}
		b.IsPaid = true
		return nil
	}
	return errNotFound
}

func (d *data) bookingsOf(userID int) []model.Booking {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked()
	out := []model.Booking{}
	for _, b := range d.bookings {
		if b.UserId == userID {
			out = append(out, b)
		}
	}
	return out
}

// sweepLocked drops unpaid bookings whose payment window has elapsed,
// releasing their seats.
func (d *data) sweepLocked() {
	d.bookings = slices.DeleteFunc(d.bookings, d.elapsedLocked)
}

func (d *data) elapsedLocked(b model.Booking) bool {
	return !b.IsPaid && !d.now().Before(b.BookedAt.Add(d.window))
}

func (d *data) hallLocked(sessionID int) (hall, bool) {
	for _, h := range d.sessions {
		if h.session.Id == sessionID {
			return h, true
		}
	}
	return hall{}, false
}

func (d *data) takenLocked(sessionID int) []model.SeatPosition {
	out := []model.SeatPosition{}
	for _, b := range d.bookings {
		if b.SessionId == sessionID {
			out = append(out, b.Seats...)
		}
	}
	return out
}
