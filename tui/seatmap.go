package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinetix-cli/booking"
	"cinetix-cli/seating"
)

// seatView is the cursor and display state of the seat map screen. The
// selection itself lives on appModel so it survives reloads.
type seatView struct {
	seatMap     seating.SeatMap
	loaded      bool
	cursor      seating.Seat
	showNumbers bool
}

func newSeatView() seatView {
	return seatView{cursor: seating.Seat{Row: 1, Number: 1}}
}

func (v seatView) withMap(seatMap seating.SeatMap) seatView {
	v.seatMap = seatMap
	v.loaded = true
	v.cursor.Row = clamp(v.cursor.Row, 1, seatMap.Rows())
	v.cursor.Number = clamp(v.cursor.Number, 1, seatMap.SeatsPerRow())
	return v
}

func (v seatView) move(dRow, dSeat int) seatView {
	if !v.loaded {
		return v
	}
	v.cursor.Row = clamp(v.cursor.Row+dRow, 1, v.seatMap.Rows())
	v.cursor.Number = clamp(v.cursor.Number+dSeat, 1, v.seatMap.SeatsPerRow())
	return v
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "up", "k":
		m.seats = m.seats.move(-1, 0)
		return m, nil, true
	case "down", "j":
		m.seats = m.seats.move(1, 0)
		return m, nil, true
	case "left", "h":
		m.seats = m.seats.move(0, -1)
		return m, nil, true
	case "right", "l":
		m.seats = m.seats.move(0, 1)
		return m, nil, true
	case "n":
		m.seats.showNumbers = !m.seats.showNumbers
		return m, nil, true
	case "r":
		next, cmd := m.loadSeatMap(m.session.Id)
		return next, cmd, true
	case " ", "space":
		authenticated := m.app.Auth.IsAuthenticated()
		if !seating.CanSelect(authenticated) {
			m.notice = "Sign in to pick seats. Press enter or ctrl+l."
			return m, nil, true
		}
		seat := m.seats.cursor
		if !m.selection.Toggle(seat, m.seats.seatMap, authenticated) {
			m.notice = fmt.Sprintf("%s is taken.", seat)
			return m, nil, true
		}
		m.notice = ""
		return m, nil, true
	case "enter":
		return m.submitSelection()
	}
	return m, nil, false
}

func (m appModel) submitSelection() (appModel, tea.Cmd, bool) {
	authenticated := m.app.Auth.IsAuthenticated()
	if !authenticated {
		next, cmd := m.openLogin(stateShowSeatMap, "Sign in to book seats.")
		return next, cmd, true
	}
	if m.selection.Empty() {
		m.notice = booking.ErrEmptySelection.Error() + "."
		return m, nil, true
	}
	m.notice = ""
	m.state = stateSubmitting
	return m, tea.Batch(m.submitBookingCmd(m.session.Id, m.selection.Clone(), authenticated), m.spinner.Tick), true
}

// submitBookingCmd hands a copy of the selection to the lifecycle so the view
// can keep rendering the original while the request is in flight.
func (m appModel) submitBookingCmd(sessionID int, selection *seating.Selection, authenticated bool) tea.Cmd {
	lifecycle := m.app.Bookings
	return func() tea.Msg {
		created, err := lifecycle.Submit(context.Background(), sessionID, selection, authenticated)
		if errors.Is(err, booking.ErrUnauthenticated) {
			return loginRequiredMsg{returnState: stateShowSeatMap}
		}
		return bookedMsg{booking: created, err: err}
	}
}

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleBooked    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	seatStyleCursor    = lipgloss.NewStyle().Reverse(true)
)

func (v seatView) render(selection *seating.Selection, authenticated bool) string {
	if !v.loaded || v.seatMap.Capacity() == 0 {
		return "No seat map data."
	}

	rows := v.seatMap.Rows()
	perRow := v.seatMap.SeatsPerRow()
	rowWidth := len(strconv.Itoa(rows))
	cellWidth := 2
	if v.showNumbers {
		cellWidth = max(cellWidth, len(strconv.Itoa(perRow)))
	}
	gridWidth := perRow*(cellWidth+1) - 1

	var b strings.Builder
	screen := screenBarBlock(gridWidth, "SCREEN")
	indent := strings.Repeat(" ", rowWidth+1)
	b.WriteString(indent + screenBorderStyle.Render(screen.top) + "\n")
	b.WriteString(indent + screenStyle.Render(screen.mid) + "\n")
	b.WriteString(indent + screenBorderStyle.Render(screen.bot) + "\n\n")

	row := 0
	for seat := range v.seatMap.All() {
		if seat.Row != row {
			if row != 0 {
				b.WriteString(fmt.Sprintf(" %*d\n", rowWidth, row))
			}
			row = seat.Row
			b.WriteString(fmt.Sprintf("%*d ", rowWidth, row))
		} else {
			b.WriteString(" ")
		}

		token, style := "[]", seatStyleAvailable
		switch {
		case v.seatMap.IsBooked(seat):
			token, style = "XX", seatStyleBooked
		case selection.Has(seat):
			token, style = "<>", seatStyleSelected
		}
		if v.showNumbers {
			token = strconv.Itoa(seat.Number)
		}
		if seat == v.cursor {
			style = style.Inherit(seatStyleCursor)
		}
		b.WriteString(style.Render(padCell(token, cellWidth)))
	}
	if row != 0 {
		b.WriteString(fmt.Sprintf(" %*d\n", rowWidth, row))
	}

	b.WriteString("\n")
	b.WriteString(hint("Legend: [] available • XX booked • <> selected • numbers are seat labels when toggled"))
	b.WriteString("\n")

	booked := v.seatMap.BookedCount()
	total := v.seatMap.Capacity()
	counts := fmt.Sprintf("Available: %d • Booked: %d • Selected: %d • Total: %d • Cursor: %s",
		total-booked-selection.Len(), booked, selection.Len(), total, v.cursor)
	b.WriteString(hint(counts))

	if !selection.Empty() {
		keys := make([]string, 0, selection.Len())
		for _, key := range selection.Keys() {
			keys = append(keys, string(key))
		}
		b.WriteString("\n" + seatStyleSelected.Render("Selected: "+strings.Join(keys, ", ")))
	}
	if !authenticated {
		b.WriteString("\n" + noticeStyle.Render("Read-only: sign in to pick seats."))
	}
	return b.String()
}

var (
	screenStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214"))
	screenBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Background(lipgloss.Color("236"))
)

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	width = max(width, len(label)+4, 10)

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}
