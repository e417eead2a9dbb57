// Package booking turns seat selections into bookings and tracks them until
// they are paid or their payment window runs out.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cinetix-cli/model"
	"cinetix-cli/seating"
)

// API is the remote booking service.
type API interface {
	CreateBooking(ctx context.Context, sessionID int, seats []model.SeatPosition) (model.Booking, error)
	PayBooking(ctx context.Context, bookingID string) error
	MyBookings(ctx context.Context) ([]model.Booking, error)
	Settings(ctx context.Context) (model.Settings, error)
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusPaying
	StatusPaid
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPaying:
		return "paying"
	case StatusPaid:
		return "paid"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type Option func(*Lifecycle)

func WithLogger(log *slog.Logger) Option {
	return func(l *Lifecycle) {
		if log != nil {
			l.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// Lifecycle owns the cached booking collection, the payment window and the
// local expired set for one application root.
type Lifecycle struct {
	api API
	log *slog.Logger
	now func() time.Time

	mu          sync.Mutex
	scope       uint64
	phase       Phase
	bookings    []model.Booking
	revision    uint64
	paying      map[string]bool
	expired     *ExpiredSet
	window      PaymentWindow
	categorizer Categorizer
}

func NewLifecycle(api API, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		api:     api,
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
		paying:  map[string]bool{},
		expired: NewExpiredSet(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit books the selected seats for a session. The selection must not be
// modified until Submit returns; on success it is cleared.
func (l *Lifecycle) Submit(ctx context.Context, sessionID int, selection *seating.Selection, isAuthenticated bool) (model.Booking, error) {
	if !isAuthenticated {
		return model.Booking{}, ErrUnauthenticated
	}
	if selection == nil || selection.Empty() {
		return model.Booking{}, ErrEmptySelection
	}

	l.mu.Lock()
	if l.phase == PhaseSubmitting {
		l.mu.Unlock()
		return model.Booking{}, ErrSubmitInProgress
	}
	l.phase = PhaseSubmitting
	scope := l.scope
	l.mu.Unlock()

	seats := selection.Selected()
	positions := make([]model.SeatPosition, 0, len(seats))
	for _, seat := range seats {
		positions = append(positions, seat.Position())
	}

	created, err := l.api.CreateBooking(ctx, sessionID, positions)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = PhaseIdle
	if err != nil {
		l.log.Warn("booking submit failed", slog.Int("session_id", sessionID), slog.Int("seats", len(positions)), slog.String("error", err.Error()))
		return model.Booking{}, &BookingFailedError{SessionID: sessionID, Err: err}
	}

	if created.SessionId == 0 {
		created.SessionId = sessionID
	}
	if len(created.Seats) == 0 {
		created.Seats = positions
	}
	if created.BookedAt.IsZero() {
		created.BookedAt = l.now()
	}
	if scope != l.scope {
		l.log.Info("discarding booking result from closed view", slog.String("booking_id", created.Id))
		return created, ErrScopeClosed
	}

	selection.Clear()
	l.bookings = append(slices.Clone(l.bookings), created)
	l.revision++
	l.log.Info("booking submitted", slog.String("booking_id", created.Id), slog.Int("session_id", sessionID), slog.Int("seats", len(positions)))
	return created, nil
}

// ConfirmPayment pays a pending booking and then refetches the whole
// collection from the server.
func (l *Lifecycle) ConfirmPayment(ctx context.Context, bookingID string) ([]model.Booking, error) {
	l.mu.Lock()
	b, ok := l.findLocked(bookingID)
	if !ok {
		l.mu.Unlock()
		return nil, ErrUnknownBooking
	}
	if b.IsPaid {
		l.mu.Unlock()
		return nil, ErrAlreadyPaid
	}
	if l.paying[bookingID] {
		l.mu.Unlock()
		return nil, ErrPaymentInProgress
	}
	l.paying[bookingID] = true
	scope := l.scope
	l.mu.Unlock()

	err := l.api.PayBooking(ctx, bookingID)

	l.mu.Lock()
	delete(l.paying, bookingID)
	l.mu.Unlock()

	if err != nil {
		l.log.Warn("payment failed", slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		return nil, &PaymentFailedError{BookingID: bookingID, Err: err}
	}
	l.log.Info("payment confirmed", slog.String("booking_id", bookingID))

	bookings, err := l.fetchAll(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("refresh bookings after payment: %w", err)
	}
	return bookings, nil
}

// FetchAll replaces the cached collection with the server's, in server order.
// On failure the previous collection is kept.
func (l *Lifecycle) FetchAll(ctx context.Context) ([]model.Booking, error) {
	l.mu.Lock()
	scope := l.scope
	l.mu.Unlock()
	return l.fetchAll(ctx, scope)
}

func (l *Lifecycle) fetchAll(ctx context.Context, scope uint64) ([]model.Booking, error) {
	bookings, err := l.api.MyBookings(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if scope != l.scope {
		return nil, ErrScopeClosed
	}
	l.bookings = slices.Clone(bookings)
	l.revision++
	l.log.Debug("bookings refreshed", slog.Int("count", len(bookings)))
	return slices.Clone(l.bookings), nil
}

// LoadSettings fetches the payment window. On failure the window stays as it
// was, unknown unless an earlier load succeeded.
func (l *Lifecycle) LoadSettings(ctx context.Context) error {
	l.mu.Lock()
	scope := l.scope
	l.mu.Unlock()

	settings, err := l.api.Settings(ctx)
	if err != nil {
		l.log.Warn("settings fetch failed", slog.String("error", err.Error()))
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if scope != l.scope {
		return ErrScopeClosed
	}
	seconds := 0
	if settings.BookingPaymentTimeSeconds != nil {
		seconds = *settings.BookingPaymentTimeSeconds
	}
	l.window = WindowFromSeconds(seconds)
	return nil
}

// Refresh loads bookings and settings concurrently. Only a bookings failure
// is returned.
func (l *Lifecycle) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := l.FetchAll(gctx)
		return err
	})
	g.Go(func() error {
		_ = l.LoadSettings(gctx)
		return nil
	})
	return g.Wait()
}

// Remount starts a new view scope. The expired set is cleared and results of
// calls started before Remount are discarded.
func (l *Lifecycle) Remount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scope++
	l.expired.Clear()
}

// MarkExpired records local expiry of a pending booking. Paid or unknown
// bookings are ignored.
func (l *Lifecycle) MarkExpired(bookingID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.findLocked(bookingID)
	if !ok || b.IsPaid {
		return false
	}
	added := l.expired.Add(bookingID)
	if added {
		l.log.Info("booking payment window elapsed", slog.String("booking_id", bookingID))
	}
	return added
}

// ExpireElapsed marks every pending booking whose payment deadline is at or
// before now, the same way a countdown does on its first tick. It returns
// the newly expired ids and does nothing while the window is unknown.
func (l *Lifecycle) ExpireElapsed(now time.Time) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.window.Known() {
		return nil
	}
	var ids []string
	for _, b := range l.bookings {
		if !b.Pending() || l.paying[b.Id] {
			continue
		}
		deadline, _ := Deadline(b.BookedAt, l.window)
		if Remaining(deadline, now) > 0 {
			continue
		}
		if l.expired.Add(b.Id) {
			l.log.Info("booking payment window elapsed", slog.String("booking_id", b.Id))
			ids = append(ids, b.Id)
		}
	}
	return ids
}

func (l *Lifecycle) Status(bookingID string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.findLocked(bookingID)
	switch {
	case !ok:
		return StatusUnknown
	case l.paying[bookingID]:
		return StatusPaying
	case b.IsPaid:
		return StatusPaid
	case l.expired.Has(bookingID):
		return StatusExpired
	default:
		return StatusPending
	}
}

func (l *Lifecycle) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Lifecycle) Bookings() []model.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.bookings)
}

func (l *Lifecycle) Booking(bookingID string) (model.Booking, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findLocked(bookingID)
}

func (l *Lifecycle) Window() PaymentWindow {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}

func (l *Lifecycle) IsExpired(bookingID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expired.Has(bookingID)
}

// Expired lists the ids hidden by local expiry, sorted.
func (l *Lifecycle) Expired() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expired.IDs()
}

// Categorize buckets the cached collection as of now. Identical inputs return
// the cached result.
func (l *Lifecycle) Categorize(now time.Time) Buckets {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.categorizer.Categorize(l.bookings, l.revision, now, l.expired)
}

func (l *Lifecycle) findLocked(bookingID string) (model.Booking, bool) {
	for _, b := range l.bookings {
		if b.Id == bookingID {
			return b, true
		}
	}
	return model.Booking{}, false
}
