package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinetix-cli/booking"
	"cinetix-cli/model"
)

type ticketsView struct {
	// gen identifies one visit of the tickets screen; messages from an older
	// visit are dropped.
	gen         uint64
	bridge      *countdownBridge
	remaining   map[string]time.Duration
	cursor      int
	returnState appState
}

type ticketsMsg struct {
	gen uint64
	err error
}

type paidMsg struct {
	gen       uint64
	bookingID string
	err       error
}

type countdownTickMsg struct {
	gen       uint64
	bookingID string
	remaining time.Duration
}

type countdownExpiredMsg struct {
	gen       uint64
	bookingID string
}

func newTicketsView() ticketsView {
	return ticketsView{remaining: map[string]time.Duration{}}
}

func (t *ticketsView) stop() {
	if t.bridge != nil {
		t.bridge.close()
		t.bridge = nil
	}
	t.gen++
}

// countdownBridge turns countdown callbacks into Bubble Tea messages. One
// wait command is outstanding at a time; each delivered message schedules
// the next one.
type countdownBridge struct {
	gen    uint64
	events chan tea.Msg
	closed chan struct{}
	once   sync.Once

	mu         sync.Mutex
	countdowns map[string]*booking.Countdown
}

func newCountdownBridge(gen uint64) *countdownBridge {
	return &countdownBridge{
		gen:        gen,
		events:     make(chan tea.Msg, 64),
		closed:     make(chan struct{}),
		countdowns: map[string]*booking.Countdown{},
	}
}

// sync starts a countdown for every pending, non-expired booking that has
// none yet and stops countdowns of bookings that are no longer pending.
func (b *countdownBridge) sync(bookings []model.Booking, window booking.PaymentWindow, expired func(string) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := map[string]bool{}
	for _, bk := range bookings {
		if !bk.Pending() || expired(bk.Id) {
			continue
		}
		pending[bk.Id] = true
		if _, ok := b.countdowns[bk.Id]; ok {
			continue
		}
		c, ok := booking.StartCountdown(bk, window, booking.CountdownOptions{
			OnTick:   b.tick,
			OnExpire: b.expire,
		})
		if ok {
			b.countdowns[bk.Id] = c
		}
	}
	for id, c := range b.countdowns {
		if !pending[id] {
			c.Stop()
			delete(b.countdowns, id)
		}
	}
}

func (b *countdownBridge) tick(bookingID string, remaining time.Duration) {
	select {
	case b.events <- countdownTickMsg{gen: b.gen, bookingID: bookingID, remaining: remaining}:
	case <-b.closed:
	default:
		// the next tick carries a fresher value
	}
}

func (b *countdownBridge) expire(bookingID string) {
	select {
	case b.events <- countdownExpiredMsg{gen: b.gen, bookingID: bookingID}:
	case <-b.closed:
	}
}

func (b *countdownBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.closed:
			return nil
		}
	}
}

// close must run before stopping the countdowns: a blocked expire send only
// returns once closed is closed.
func (b *countdownBridge) close() {
	b.once.Do(func() { close(b.closed) })
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.countdowns {
		c.Stop()
		delete(b.countdowns, id)
	}
}

func (m appModel) openTickets() (appModel, tea.Cmd) {
	if !m.app.Auth.IsAuthenticated() {
		return m.openLogin(stateShowTickets, "Sign in to see your tickets.")
	}
	switch m.state {
	case stateSelectMovie, stateSelectCinema, stateShowSessions:
		m.tickets.returnState = m.state
	case stateShowSeatMap, stateSubmitting:
		m.tickets.returnState = stateShowSessions
	case stateShowTickets, stateLoadingTickets:
	default:
		m.tickets.returnState = m.browseState()
	}
	m.tickets.stop()
	m.app.Bookings.Remount()
	m.tickets.remaining = map[string]time.Duration{}
	m.tickets.cursor = 0
	m.state = stateLoadingTickets
	return m, tea.Batch(m.refreshTicketsCmd(m.tickets.gen), m.spinner.Tick)
}

func (m *appModel) leaveTickets() {
	m.tickets.stop()
}

func (m appModel) refreshTicketsCmd(gen uint64) tea.Cmd {
	lifecycle := m.app.Bookings
	return func() tea.Msg {
		return ticketsMsg{gen: gen, err: lifecycle.Refresh(context.Background())}
	}
}

func (m appModel) payCmd(gen uint64, bookingID string) tea.Cmd {
	lifecycle := m.app.Bookings
	return func() tea.Msg {
		_, err := lifecycle.ConfirmPayment(context.Background(), bookingID)
		return paidMsg{gen: gen, bookingID: bookingID, err: err}
	}
}

func (m *appModel) syncCountdowns() tea.Cmd {
	var cmd tea.Cmd
	if m.tickets.bridge == nil {
		m.tickets.bridge = newCountdownBridge(m.tickets.gen)
		cmd = m.tickets.bridge.wait()
	}
	lifecycle := m.app.Bookings
	m.tickets.bridge.sync(lifecycle.Bookings(), lifecycle.Window(), lifecycle.IsExpired)
	return cmd
}

func (m appModel) updateTickets(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ticketsMsg:
		if msg.gen != m.tickets.gen {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, booking.ErrScopeClosed) {
				return m, nil
			}
			return m, errWithReturnCmd(msg.err, m.tickets.returnState)
		}
		m.state = stateShowTickets
		m.clampTicketCursor()
		return m, m.syncCountdowns()

	case paidMsg:
		if msg.gen != m.tickets.gen {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, booking.ErrScopeClosed) {
				return m, nil
			}
			return m, errWithReturnCmd(msg.err, stateShowTickets)
		}
		m.notice = fmt.Sprintf("Booking %s is paid.", shortID(msg.bookingID))
		delete(m.tickets.remaining, msg.bookingID)
		m.clampTicketCursor()
		return m, m.syncCountdowns()

	case countdownTickMsg:
		if msg.gen != m.tickets.gen || m.tickets.bridge == nil {
			return m, nil
		}
		m.tickets.remaining[msg.bookingID] = msg.remaining
		return m, m.tickets.bridge.wait()

	case countdownExpiredMsg:
		if msg.gen != m.tickets.gen || m.tickets.bridge == nil {
			return m, nil
		}
		if m.app.Bookings.MarkExpired(msg.bookingID) {
			m.notice = fmt.Sprintf("Payment window for booking %s has closed.", shortID(msg.bookingID))
		}
		delete(m.tickets.remaining, msg.bookingID)
		m.clampTicketCursor()
		return m, m.tickets.bridge.wait()
	}
	return m, nil
}

func (m appModel) handleTicketsKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	rows := ticketRows(m.app.Bookings.Categorize(time.Now()))
	switch msg.String() {
	case "up", "k":
		m.tickets.cursor = max(0, m.tickets.cursor-1)
		return m, nil, true
	case "down", "j":
		m.tickets.cursor = min(max(0, len(rows)-1), m.tickets.cursor+1)
		return m, nil, true
	case "r":
		next, cmd := m.openTickets()
		return next, cmd, true
	case "enter", "p":
		if m.tickets.cursor >= len(rows) {
			return m, nil, true
		}
		row := rows[m.tickets.cursor]
		if row.section != sectionUnpaid {
			m.notice = "Only unpaid bookings can be paid."
			return m, nil, true
		}
		if m.app.Bookings.Status(row.booking.Id) == booking.StatusPaying {
			m.notice = booking.ErrPaymentInProgress.Error() + "."
			return m, nil, true
		}
		m.notice = fmt.Sprintf("Paying booking %s...", shortID(row.booking.Id))
		return m, m.payCmd(m.tickets.gen, row.booking.Id), true
	}
	return m, nil, false
}

func (m *appModel) clampTicketCursor() {
	rows := ticketRows(m.app.Bookings.Categorize(time.Now()))
	m.tickets.cursor = min(m.tickets.cursor, max(0, len(rows)-1))
}

type ticketSection int

const (
	sectionUnpaid ticketSection = iota
	sectionUpcoming
	sectionPast
)

func (s ticketSection) title() string {
	switch s {
	case sectionUnpaid:
		return "Unpaid"
	case sectionUpcoming:
		return "Upcoming"
	default:
		return "Past"
	}
}

type ticketRow struct {
	section ticketSection
	booking model.Booking
}

func ticketRows(buckets booking.Buckets) []ticketRow {
	rows := make([]ticketRow, 0, buckets.Len())
	for _, b := range buckets.Unpaid {
		rows = append(rows, ticketRow{section: sectionUnpaid, booking: b})
	}
	for _, b := range buckets.Future {
		rows = append(rows, ticketRow{section: sectionUpcoming, booking: b})
	}
	for _, b := range buckets.Past {
		rows = append(rows, ticketRow{section: sectionPast, booking: b})
	}
	return rows
}

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func (m appModel) renderTickets(now time.Time) string {
	lifecycle := m.app.Bookings
	buckets := lifecycle.Categorize(now)
	rows := ticketRows(buckets)
	window := lifecycle.Window()

	counts := map[ticketSection]int{
		sectionUnpaid:   len(buckets.Unpaid),
		sectionUpcoming: len(buckets.Future),
		sectionPast:     len(buckets.Past),
	}

	var b strings.Builder
	index := 0
	for _, section := range []ticketSection{sectionUnpaid, sectionUpcoming, sectionPast} {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", section.title(), counts[section])))
		b.WriteString("\n")
		if counts[section] == 0 {
			b.WriteString(hint("  nothing here") + "\n\n")
			continue
		}
		for ; index < len(rows) && rows[index].section == section; index++ {
			row := rows[index]
			prefix := "  "
			if index == m.tickets.cursor {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(prefix + ticketLine(row.booking))
			if section == sectionUnpaid {
				b.WriteString("  " + m.paymentLabel(row.booking, window, now))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if !window.Known() && len(buckets.Unpaid) > 0 {
		b.WriteString(hint("Payment window unavailable; countdowns are off.") + "\n")
	}
	return b.String()
}

func ticketLine(b model.Booking) string {
	return fmt.Sprintf("%s  session %d  seats %s  booked %s",
		shortID(b.Id), b.SessionId, seatList(b.Seats), b.BookedAt.Local().Format("Mon 02 Jan 15:04"))
}

func (m appModel) paymentLabel(b model.Booking, window booking.PaymentWindow, now time.Time) string {
	if m.app.Bookings.Status(b.Id) == booking.StatusPaying {
		return hint("paying...")
	}
	remaining, ok := m.tickets.remaining[b.Id]
	if !ok {
		deadline, known := booking.Deadline(b.BookedAt, window)
		if !known {
			return hint("pay soon")
		}
		remaining = booking.Remaining(deadline, now)
	}
	label := "pay within " + booking.FormatRemaining(remaining)
	if booking.Urgent(remaining) {
		return urgentStyle.Render(label)
	}
	return okStyle.Render(label)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
