package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinetix-cli/appstate"
	"cinetix-cli/model"
	"cinetix-cli/schedule"
	"cinetix-cli/seating"
	"cinetix-cli/service"
	"cinetix-cli/store"
)

type appState int

const (
	stateLoadingMovies appState = iota
	stateSelectMovie
	stateLoadingCinemas
	stateSelectCinema
	stateManageCinemas
	stateLoadingSessions
	stateShowSessions
	stateLoadingSeatMap
	stateShowSeatMap
	stateSubmitting
	stateLogin
	stateLoadingTickets
	stateShowTickets
	stateError
)

type browseMode int

const (
	browseByMovie browseMode = iota
	browseByCinema
)

type appModel struct {
	app *appstate.State

	state     appState
	lastState appState
	err       error

	width  int
	height int

	movies  []model.Movie
	cinemas []model.Cinema

	mode    browseMode
	movie   model.Movie
	cinema  model.Cinema
	session model.MovieSession

	movieList   list.Model
	cinemaList  list.Model
	cinemaPref  list.Model
	sessionList list.Model

	hiddenCinemas map[int]bool

	seats     seatView
	selection *seating.Selection

	login   loginForm
	tickets ticketsView

	spinner spinner.Model
	notice  string

	// fetchGen identifies the latest catalog or seat map request; results
	// carrying another value are dropped.
	fetchGen uint64
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type moviesMsg struct {
	gen    uint64
	movies []model.Movie
	err    error
}

type cinemasMsg struct {
	gen     uint64
	cinemas []model.Cinema
	err     error
}

type sessionsMsg struct {
	gen uint64
	// movie is set when browsing by film and carries the full details.
	movie model.Movie
	days  []schedule.Day
	err   error
}

type seatMapMsg struct {
	gen       uint64
	sessionID int
	detail    model.MovieSessionDetails
	seatMap   seating.SeatMap
	err       error
}

type bookedMsg struct {
	booking model.Booking
	err     error
}

// New builds the root model. All collaborators come from app.
func New(app *appstate.State) tea.Model {
	m := appModel{
		app:       app,
		state:     stateLoadingMovies,
		selection: seating.NewSelection(),
	}

	m.movieList = newList("Films")
	m.cinemaList = newList("Cinemas")
	m.cinemaPref = newList("Visible Cinemas")
	m.sessionList = newList("Sessions")
	m.hiddenCinemas = make(map[int]bool)
	m.login = newLoginForm()
	m.tickets = newTicketsView()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchMoviesCmd(m.fetchGen), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateLogin {
			return m.updateLogin(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		if errors.Is(msg.err, service.ErrUnauthorized) {
			returnState := msg.returnState
			if !msg.returnStateSet {
				returnState = recoverStateFrom(m.state)
			}
			return m.openLogin(returnState, "Your session expired. Sign in again.")
		}
		return m.showError(msg), nil

	case loginRequiredMsg:
		return m.openLogin(msg.returnState, "Sign in to continue.")

	case moviesMsg:
		if msg.gen != m.fetchGen {
			return m, nil
		}
		loading := m.state == stateLoadingMovies
		if msg.err != nil {
			if !loading {
				return m, nil
			}
			return m, errCmd(msg.err)
		}
		m.movies = msg.movies
		m.movieList.SetItems(buildMovieItems(msg.movies))
		if loading {
			m.state = stateSelectMovie
		}
		return m, nil

	case cinemasMsg:
		if msg.gen != m.fetchGen || m.state != stateLoadingCinemas {
			return m, nil
		}
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.cinemas = msg.cinemas
		hidden, err := store.LoadHiddenCinemas()
		if err != nil {
			return m, errCmd(err)
		}
		m.hiddenCinemas = hidden
		m.refreshCinemaLists()
		m.cinemaList.Select(0)
		m.state = stateSelectCinema
		return m, nil

	case sessionsMsg:
		if !m.awaiting(msg.gen, stateLoadingSessions) {
			return m, nil
		}
		if msg.err != nil {
			return m, errWithReturnCmd(msg.err, m.browseState())
		}
		items := buildSessionItems(msg.days)
		if len(items) == 0 {
			return m, errWithReturnCmd(errors.New("no upcoming sessions"), m.browseState())
		}
		if msg.movie.Id != 0 {
			m.movie = msg.movie
		}
		m.sessionList.SetItems(items)
		m.sessionList.Select(0)
		m.state = stateShowSessions
		return m, nil

	case seatMapMsg:
		if !m.awaiting(msg.gen, stateLoadingSeatMap) || msg.sessionID != m.session.Id {
			return m, nil
		}
		if msg.err != nil {
			return m, errWithReturnCmd(msg.err, stateShowSessions)
		}
		m.session = msg.detail.MovieSession
		if dropped := m.selection.Retain(msg.seatMap); dropped > 0 {
			m.notice = fmt.Sprintf("%d selected seat(s) were taken meanwhile", dropped)
		}
		m.seats = m.seats.withMap(msg.seatMap)
		m.state = stateShowSeatMap
		return m, nil

	case bookedMsg:
		if msg.err != nil {
			m.state = stateShowSeatMap
			if errors.Is(msg.err, service.ErrUnauthorized) {
				return m.openLogin(stateShowSeatMap, "Your session expired. Sign in again to book.")
			}
			return m, errWithReturnCmd(msg.err, stateShowSeatMap)
		}
		m.selection.Clear()
		m.notice = fmt.Sprintf("Booked %s. Pay before the window closes.", seatList(msg.booking.Seats))
		return m.openTickets()

	case loginMsg:
		return m.handleLoginResult(msg)

	case ticketsMsg:
		if m.state != stateLoadingTickets && m.state != stateShowTickets {
			return m, nil
		}
		return m.updateTickets(msg)

	case paidMsg, countdownTickMsg, countdownExpiredMsg:
		return m.updateTickets(msg)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectCinema:
		m.cinemaList, cmd = m.cinemaList.Update(msg)
	case stateManageCinemas:
		m.cinemaPref, cmd = m.cinemaPref.Update(msg)
	case stateShowSessions:
		m.sessionList, cmd = m.sessionList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingMovies, stateLoadingCinemas, stateLoadingSessions, stateLoadingSeatMap, stateLoadingTickets, stateSubmitting:
		return header + "\n\n" + m.loadingView()
	case stateSelectMovie:
		return header + "\n\n" + m.movieList.View()
	case stateSelectCinema:
		return header + "\n\n" + m.cinemaList.View()
	case stateManageCinemas:
		return header + "\n\n" + m.cinemaPref.View()
	case stateShowSessions:
		if m.mode == browseByMovie && m.movie.Id != 0 {
			return header + "\n\n" + movieDetails(m.movie) + "\n\n" + m.sessionList.View()
		}
		return header + "\n\n" + m.sessionList.View()
	case stateShowSeatMap:
		return header + "\n\n" + m.seats.render(m.selection, m.app.Auth.IsAuthenticated())
	case stateLogin:
		return header + "\n\n" + m.login.view()
	case stateShowTickets:
		return header + "\n\n" + m.renderTickets(time.Now())
	case stateError:
		return header + "\n\n" + errorStyle.Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Cinetix")
	sub := []string{}
	if name := m.app.Auth.Username(); name != "" {
		sub = append(sub, "Signed in as "+name)
	} else {
		sub = append(sub, "Not signed in")
	}
	if m.mode == browseByMovie && m.movie.Title != "" {
		sub = append(sub, "Film: "+m.movie.Title)
	}
	if m.mode == browseByCinema && m.cinema.Name != "" {
		sub = append(sub, "Cinema: "+m.cinema.Name)
	}
	if (m.state == stateShowSeatMap || m.state == stateSubmitting) && !m.session.StartTime.IsZero() {
		sub = append(sub, "Session: "+m.session.StartTime.Local().Format("Mon 02 Jan 15:04"))
	}
	meta := lipgloss.NewStyle().Faint(true).Render(strings.Join(sub, " • "))

	hints := "ctrl+c quit • esc back • type to filter • ctrl+f films • ctrl+o cinemas • ctrl+t tickets • ctrl+l sign in/out"
	switch m.state {
	case stateSelectCinema:
		hints = "ctrl+c quit • esc back • type to filter • enter select • ctrl+e manage cinemas • ctrl+f films • ctrl+t tickets"
	case stateManageCinemas:
		hints = "ctrl+c quit • esc back • type to filter • enter toggle cinema visibility"
	case stateShowSessions:
		hints = "ctrl+c quit • esc back • type to filter • enter pick seats • ctrl+t tickets"
	case stateShowSeatMap:
		hints = "q quit • esc back • arrows move • space toggle seat • enter book • r reload • n toggle numbers"
	case stateLogin:
		hints = "ctrl+c quit • esc cancel • tab next field • enter submit • ctrl+r switch sign in/register"
	case stateShowTickets:
		hints = "q quit • esc back • ↑/↓ move • enter/p pay • r refresh"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	noticeLine := ""
	if m.notice != "" {
		noticeLine = "\n" + noticeStyle.Render(m.notice)
	}
	return title + "\n" + meta + filterLine + noticeLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.tickets.stop()
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+f":
		if m.state != stateSubmitting {
			m.leaveTickets()
			m.mode = browseByMovie
			next, cmd := m.enter(stateSelectMovie)
			return next, cmd, true
		}
	case "ctrl+o":
		if m.state != stateSubmitting {
			m.leaveTickets()
			m.mode = browseByCinema
			next, cmd := m.loadCinemas()
			return next, cmd, true
		}
	case "ctrl+t":
		if m.state != stateSubmitting && m.state != stateShowTickets {
			next, cmd := m.openTickets()
			return next, cmd, true
		}
	case "ctrl+l":
		if m.state == stateSubmitting {
			return m, nil, true
		}
		if m.app.Auth.IsAuthenticated() {
			if err := m.app.Auth.Logout(); err != nil {
				return m, errCmd(err), true
			}
			m.leaveTickets()
			m.notice = "Signed out."
			if m.state == stateShowTickets {
				m.state = m.browseState()
			}
			return m, nil, true
		}
		next, cmd := m.openLogin(m.state, "")
		return next, cmd, true
	case "ctrl+e":
		if m.state == stateSelectCinema {
			m.state = stateManageCinemas
			m.refreshCinemaLists()
			return m, nil, true
		}
	}

	switch m.state {
	case stateShowSeatMap:
		return m.handleSeatMapKey(msg)
	case stateShowTickets:
		return m.handleTicketsKey(msg)
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.mode = browseByMovie
			m.movie = item.movie
			m.sessionList.Title = "Sessions • " + item.movie.Title
			next, cmd := m.loadMovieSessions(item.movie.Id)
			return next, cmd, true
		case stateSelectCinema:
			item, ok := m.cinemaList.SelectedItem().(cinemaItem)
			if !ok {
				return m, nil, true
			}
			m.mode = browseByCinema
			m.cinema = item.cinema
			rememberCinema(item.cinema)
			m.sessionList.Title = "Sessions • " + item.cinema.Name
			next, cmd := m.loadCinemaSessions(item.cinema.Id)
			return next, cmd, true
		case stateManageCinemas:
			return m.toggleCinemaVisibility()
		case stateShowSessions:
			item, ok := m.sessionList.SelectedItem().(sessionItem)
			if !ok {
				return m, nil, true
			}
			m.session = item.session
			m.selection = seating.NewSelection()
			m.seats = newSeatView()
			m.notice = ""
			next, cmd := m.loadSeatMap(item.session.Id)
			return next, cmd, true
		}
	}
	return m, nil, false
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateSelectCinema:
		m.state = stateSelectMovie
	case stateManageCinemas:
		m.state = stateSelectCinema
	case stateShowSessions:
		m.state = m.browseState()
	case stateShowSeatMap:
		m.notice = ""
		m.state = stateShowSessions
	case stateShowTickets:
		m.leaveTickets()
		m.state = m.tickets.returnState
	case stateError:
		return m.enter(m.lastState)
	default:
		return m, nil
	}
	return m, nil
}

func (m appModel) showError(msg errMsg) appModel {
	m.err = msg.err
	if msg.returnStateSet {
		m.lastState = msg.returnState
	} else {
		m.lastState = recoverStateFrom(m.state)
	}
	m.state = stateError
	return m
}

// beginFetch enters a loading state and returns the generation its result
// must carry.
func (m *appModel) beginFetch(state appState) uint64 {
	m.fetchGen++
	m.state = state
	return m.fetchGen
}

// awaiting reports whether a result of generation gen is still wanted in
// the given loading state.
func (m appModel) awaiting(gen uint64, state appState) bool {
	return gen == m.fetchGen && m.state == state
}

// enter shows a browse screen, loading its data first when it has none.
func (m appModel) enter(state appState) (appModel, tea.Cmd) {
	switch {
	case state == stateSelectMovie && len(m.movies) == 0:
		return m.loadMovies()
	case state == stateSelectCinema && len(m.cinemas) == 0:
		return m.loadCinemas()
	}
	m.state = state
	return m, nil
}

// settledState maps a loading state to the screen it leads back to.
func (m appModel) settledState(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateSelectMovie
	case stateLoadingCinemas:
		return stateSelectCinema
	case stateLoadingSessions:
		return m.browseState()
	case stateLoadingSeatMap:
		return stateShowSessions
	case stateSubmitting:
		return stateShowSeatMap
	}
	return state
}

func (m appModel) browseState() appState {
	if m.mode == browseByCinema {
		return stateSelectCinema
	}
	return stateSelectMovie
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateSelectCinema:
		return &m.cinemaList
	case stateManageCinemas:
		return &m.cinemaPref
	case stateShowSessions:
		return &m.sessionList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	switch m.state {
	case stateLoadingMovies, stateLoadingCinemas, stateLoadingSessions, stateLoadingSeatMap, stateLoadingTickets, stateSubmitting:
		return true
	}
	return false
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingMovies:
		title = "Loading films"
	case stateLoadingCinemas:
		title = "Loading cinemas"
	case stateLoadingSessions:
		title = "Loading sessions"
	case stateLoadingSeatMap:
		title = "Loading seat map"
	case stateLoadingTickets:
		title = "Loading tickets"
	case stateSubmitting:
		title = "Booking seats"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to the Cinetix API..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := max(6, m.height-7)
	m.movieList.SetSize(m.width, h)
	m.cinemaList.SetSize(m.width, h)
	m.cinemaPref.SetSize(m.width, h)
	m.sessionList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithReturnCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err, returnState: returnState, returnStateSet: true}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateSelectMovie
	case stateLoadingCinemas:
		return stateSelectCinema
	case stateLoadingSessions:
		return stateSelectMovie
	case stateLoadingSeatMap:
		return stateShowSessions
	case stateSubmitting:
		return stateShowSeatMap
	case stateLoadingTickets:
		return stateSelectMovie
	case stateError:
		return stateSelectMovie
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func seatList(seats []model.SeatPosition) string {
	parts := make([]string, 0, len(seats))
	for _, s := range seats {
		parts = append(parts, string(seating.SeatFromPosition(s).Key()))
	}
	return strings.Join(parts, ", ")
}
