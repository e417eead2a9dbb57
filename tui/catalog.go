package tui

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinetix-cli/model"
	"cinetix-cli/schedule"
	"cinetix-cli/seating"
	"cinetix-cli/store"
)

func (m appModel) loadMovies() (appModel, tea.Cmd) {
	gen := m.beginFetch(stateLoadingMovies)
	return m, tea.Batch(m.fetchMoviesCmd(gen), m.spinner.Tick)
}

func (m appModel) loadCinemas() (appModel, tea.Cmd) {
	gen := m.beginFetch(stateLoadingCinemas)
	return m, tea.Batch(m.fetchCinemasCmd(gen), m.spinner.Tick)
}

func (m appModel) loadMovieSessions(movieID int) (appModel, tea.Cmd) {
	gen := m.beginFetch(stateLoadingSessions)
	return m, tea.Batch(m.fetchMovieSessionsCmd(gen, movieID), m.spinner.Tick)
}

func (m appModel) loadCinemaSessions(cinemaID int) (appModel, tea.Cmd) {
	gen := m.beginFetch(stateLoadingSessions)
	return m, tea.Batch(m.fetchCinemaSessionsCmd(gen, cinemaID), m.spinner.Tick)
}

// loadSeatMap fetches the seat map of m.session, which must already be set to
// sessionID.
func (m appModel) loadSeatMap(sessionID int) (appModel, tea.Cmd) {
	gen := m.beginFetch(stateLoadingSeatMap)
	return m, tea.Batch(m.fetchSeatMapCmd(gen, sessionID), m.spinner.Tick)
}

func (m appModel) fetchMoviesCmd(gen uint64) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		movies, err := app.Movies(context.Background())
		return moviesMsg{gen: gen, movies: movies, err: err}
	}
}

func (m appModel) fetchCinemasCmd(gen uint64) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		cinemas, err := app.Cinemas(context.Background())
		return cinemasMsg{gen: gen, cinemas: cinemas, err: err}
	}
}

func (m appModel) fetchMovieSessionsCmd(gen uint64, movieID int) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		ctx := context.Background()
		movie, err := app.Client.Movie(ctx, movieID)
		if err != nil {
			return sessionsMsg{gen: gen, err: err}
		}
		sessions, err := app.Client.MovieSessions(ctx, movieID)
		if err != nil {
			return sessionsMsg{gen: gen, err: err}
		}
		cinemas, err := app.Cinemas(ctx)
		if err != nil {
			return sessionsMsg{gen: gen, err: err}
		}
		upcoming := schedule.Upcoming(sessions, time.Now())
		return sessionsMsg{gen: gen, movie: movie, days: schedule.ByCinema(upcoming, cinemas, time.Local)}
	}
}

func (m appModel) fetchCinemaSessionsCmd(gen uint64, cinemaID int) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		ctx := context.Background()
		sessions, err := app.CinemaSchedule(ctx, cinemaID)
		if err != nil {
			return sessionsMsg{gen: gen, err: err}
		}
		movies, err := app.Movies(ctx)
		if err != nil {
			return sessionsMsg{gen: gen, err: err}
		}
		upcoming := schedule.Upcoming(sessions, time.Now())
		return sessionsMsg{gen: gen, days: schedule.ByMovie(upcoming, movies, time.Local)}
	}
}

func (m appModel) fetchSeatMapCmd(gen uint64, sessionID int) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		detail, err := app.Client.SessionDetails(context.Background(), sessionID)
		if err != nil {
			return seatMapMsg{gen: gen, sessionID: sessionID, err: err}
		}
		seatMap, err := seating.FromSession(detail)
		if err != nil {
			return seatMapMsg{gen: gen, sessionID: sessionID, err: fmt.Errorf("session %d: %w", sessionID, err)}
		}
		return seatMapMsg{gen: gen, sessionID: sessionID, detail: detail, seatMap: seatMap}
	}
}

func rememberCinema(cinema model.Cinema) {
	_ = store.RememberCinema(cinema)
}

type movieItem struct {
	movie model.Movie
}

func (m movieItem) Title() string {
	if m.movie.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.movie.Title, m.movie.Year)
	}
	return m.movie.Title
}

func (m movieItem) Description() string {
	parts := []string{}
	if m.movie.LengthMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", m.movie.LengthMinutes))
	}
	if m.movie.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", m.movie.Rating))
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{m.movie.Title, m.movie.Description}, " "))
}

type cinemaItem struct {
	cinema model.Cinema
	recent bool
}

func (c cinemaItem) Title() string {
	return c.cinema.Name
}

func (c cinemaItem) Description() string {
	parts := []string{}
	if c.recent {
		parts = append(parts, "Recent")
	}
	if c.cinema.Address != "" {
		parts = append(parts, c.cinema.Address)
	}
	return strings.Join(parts, " • ")
}

func (c cinemaItem) FilterValue() string {
	return strings.ToLower(c.cinema.Name + " " + c.cinema.Address)
}

type cinemaVisibilityItem struct {
	cinema model.Cinema
	hidden bool
}

func (c cinemaVisibilityItem) Title() string {
	if c.hidden {
		return "[ ] " + c.cinema.Name
	}
	return "[x] " + c.cinema.Name
}

func (c cinemaVisibilityItem) Description() string {
	if c.hidden {
		return "Hidden"
	}
	return "Visible"
}

func (c cinemaVisibilityItem) FilterValue() string {
	return strings.ToLower(c.cinema.Name + " " + c.cinema.Address)
}

type sessionItem struct {
	session model.MovieSession
	group   string
}

func (s sessionItem) Title() string {
	return s.session.StartTime.Local().Format("Mon 02 Jan • 15:04")
}

func (s sessionItem) Description() string {
	return s.group
}

func (s sessionItem) FilterValue() string {
	return strings.ToLower(s.group + " " + s.Title())
}

var detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

func movieDetails(movie model.Movie) string {
	title := movieItem{movie: movie}.Title()
	lines := []string{detailTitleStyle.Render(title)}
	if meta := (movieItem{movie: movie}).Description(); meta != "" {
		lines = append(lines, hint(meta))
	}
	if movie.Description != "" {
		lines = append(lines, lipgloss.NewStyle().Width(72).Render(movie.Description))
	}
	return strings.Join(lines, "\n")
}

func buildMovieItems(movies []model.Movie) []list.Item {
	sorted := slices.Clone(movies)
	slices.SortStableFunc(sorted, func(a, b model.Movie) int {
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	items := make([]list.Item, 0, len(sorted))
	for _, movie := range sorted {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

// buildCinemaItems lists recently opened cinemas first, then the rest by
// name. Hidden cinemas are left out.
func buildCinemaItems(cinemas []model.Cinema, hidden map[int]bool, recents []store.RecentCinema) []list.Item {
	byID := make(map[int]model.Cinema, len(cinemas))
	for _, cinema := range cinemas {
		byID[cinema.Id] = cinema
	}

	items := make([]list.Item, 0, len(cinemas))
	used := map[int]bool{}
	for _, recent := range recents {
		cinema, ok := byID[recent.ID]
		if !ok || hidden[cinema.Id] || used[cinema.Id] {
			continue
		}
		items = append(items, cinemaItem{cinema: cinema, recent: true})
		used[cinema.Id] = true
	}

	remaining := make([]model.Cinema, 0, len(cinemas))
	for _, cinema := range cinemas {
		if !used[cinema.Id] && !hidden[cinema.Id] {
			remaining = append(remaining, cinema)
		}
	}
	slices.SortStableFunc(remaining, func(a, b model.Cinema) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	for _, cinema := range remaining {
		items = append(items, cinemaItem{cinema: cinema})
	}
	return items
}

func buildCinemaVisibilityItems(cinemas []model.Cinema, hidden map[int]bool) []list.Item {
	sorted := slices.Clone(cinemas)
	slices.SortStableFunc(sorted, func(a, b model.Cinema) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	items := make([]list.Item, 0, len(sorted))
	for _, cinema := range sorted {
		items = append(items, cinemaVisibilityItem{cinema: cinema, hidden: hidden[cinema.Id]})
	}
	return items
}

func buildSessionItems(days []schedule.Day) []list.Item {
	var items []list.Item
	for _, day := range days {
		for _, group := range day.Groups {
			for _, show := range group.Showtimes {
				items = append(items, sessionItem{
					session: model.MovieSession{Id: show.SessionID, StartTime: show.Start},
					group:   group.Name,
				})
			}
		}
	}
	return items
}

func (m *appModel) refreshCinemaLists() {
	recents, _ := store.LoadRecentCinemas()
	m.cinemaList.SetItems(buildCinemaItems(m.cinemas, m.hiddenCinemas, recents))
	m.cinemaPref.SetItems(buildCinemaVisibilityItems(m.cinemas, m.hiddenCinemas))
}

func (m appModel) toggleCinemaVisibility() (appModel, tea.Cmd, bool) {
	item, ok := m.cinemaPref.SelectedItem().(cinemaVisibilityItem)
	if !ok {
		return m, nil, true
	}
	hidden := !item.hidden
	if err := store.SetCinemaHidden(item.cinema.Id, hidden); err != nil {
		return m, errCmd(err), true
	}
	if m.hiddenCinemas == nil {
		m.hiddenCinemas = map[int]bool{}
	}
	if hidden {
		m.hiddenCinemas[item.cinema.Id] = true
	} else {
		delete(m.hiddenCinemas, item.cinema.Id)
	}

	index := m.cinemaPref.Index()
	m.refreshCinemaLists()
	if count := len(m.cinemaPref.Items()); count > 0 {
		m.cinemaPref.Select(min(index, count-1))
	}
	return m, nil, true
}
