package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinetix-cli/model"
	"cinetix-cli/service"
)

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

type loginForm struct {
	inputs      []textinput.Model
	focus       int
	register    bool
	submitting  bool
	message     string
	returnState appState
	cancelState appState
}

type loginMsg struct {
	user model.User
	err  error
}

// loginRequiredMsg asks the root model to open the form and come back to
// returnState once signed in.
type loginRequiredMsg struct {
	returnState appState
}

func newLoginForm() loginForm {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 128
		in.Width = 32
		inputs[i] = in
	}
	inputs[fieldUsername].Placeholder = "username"
	inputs[fieldEmail].Placeholder = "email"
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '*'
	inputs[fieldConfirm].Placeholder = "repeat password"
	inputs[fieldConfirm].EchoMode = textinput.EchoPassword
	inputs[fieldConfirm].EchoCharacter = '*'
	inputs[fieldUsername].Focus()
	return loginForm{inputs: inputs}
}

func (f loginForm) visibleFields() []int {
	if f.register {
		return []int{fieldUsername, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []int{fieldUsername, fieldPassword}
}

func (f loginForm) cycleFocus(step int) loginForm {
	fields := f.visibleFields()
	pos := 0
	for i, field := range fields {
		if field == f.focus {
			pos = i
		}
	}
	pos = (pos + step + len(fields)) % len(fields)
	f.inputs[f.focus].Blur()
	f.focus = fields[pos]
	f.inputs[f.focus].Focus()
	return f
}

func (f loginForm) reset() loginForm {
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.focus = fieldUsername
	f.inputs[fieldUsername].Focus()
	f.submitting = false
	return f
}

func (f loginForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

func (f loginForm) validate() error {
	if f.value(fieldUsername) == "" {
		return errors.New("username is required")
	}
	if f.inputs[fieldPassword].Value() == "" {
		return errors.New("password is required")
	}
	if f.register && f.value(fieldEmail) == "" {
		return errors.New("email is required")
	}
	return nil
}

var (
	formLabelStyle  = lipgloss.NewStyle().Width(10)
	formFocusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	formHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
)

func (f loginForm) view() string {
	title := "Sign in"
	if f.register {
		title = "Create account"
	}
	labels := map[int]string{
		fieldUsername: "Username",
		fieldEmail:    "Email",
		fieldPassword: "Password",
		fieldConfirm:  "Confirm",
	}

	lines := []string{formHeaderStyle.Render(title), ""}
	for _, field := range f.visibleFields() {
		label := formLabelStyle.Render(labels[field])
		if field == f.focus {
			label = formFocusStyle.Inherit(formLabelStyle).Render(labels[field])
		}
		lines = append(lines, label+" "+f.inputs[field].View())
	}
	lines = append(lines, "")
	if f.submitting {
		lines = append(lines, hint("Signing in..."))
	} else if f.message != "" {
		lines = append(lines, noticeStyle.Render(f.message))
	}

	return lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) openLogin(returnState appState, message string) (appModel, tea.Cmd) {
	if returnState == stateLogin || returnState == stateError {
		returnState = m.browseState()
	}
	m.login = m.login.reset()
	m.login.returnState = m.settledState(returnState)
	m.login.cancelState = m.settledState(m.state)
	switch m.state {
	case stateLogin, stateError, stateSubmitting, stateLoadingTickets, stateShowTickets:
		m.login.cancelState = m.browseState()
	}
	m.login.message = message
	m.state = stateLogin
	return m, textinput.Blink
}

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.tickets.stop()
		return m, tea.Quit
	case "esc":
		return m.enter(m.login.cancelState)
	}
	if m.login.submitting {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		m.login = m.login.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.login = m.login.cycleFocus(-1)
		return m, nil
	case "ctrl+r":
		m.login.register = !m.login.register
		m.login.message = ""
		m.login.inputs[m.login.focus].Blur()
		m.login.focus = fieldUsername
		m.login.inputs[fieldUsername].Focus()
		return m, nil
	case "enter":
		if err := m.login.validate(); err != nil {
			m.login.message = err.Error()
			return m, nil
		}
		m.login.submitting = true
		m.login.message = ""
		return m, m.loginCmd(m.login)
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

func (m appModel) loginCmd(form loginForm) tea.Cmd {
	session := m.app.Auth
	username := form.value(fieldUsername)
	password := form.inputs[fieldPassword].Value()
	if !form.register {
		return func() tea.Msg {
			user, err := session.Login(context.Background(), model.Credentials{Username: username, Password: password})
			return loginMsg{user: user, err: err}
		}
	}
	reg := model.Registration{Username: username, Email: form.value(fieldEmail), Password: password}
	confirm := form.inputs[fieldConfirm].Value()
	return func() tea.Msg {
		user, err := session.Register(context.Background(), reg, confirm)
		return loginMsg{user: user, err: err}
	}
}

func (m appModel) handleLoginResult(msg loginMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		m.login.message = loginErrorMessage(msg.err)
		m.login.inputs[fieldPassword].Reset()
		m.login.inputs[fieldConfirm].Reset()
		return m, nil
	}

	m.notice = "Signed in as " + msg.user.Username + "."
	m.login = m.login.reset()
	switch m.login.returnState {
	case stateShowSeatMap:
		return m.loadSeatMap(m.session.Id)
	case stateShowTickets, stateLoadingTickets:
		return m.openTickets()
	}
	return m.enter(m.login.returnState)
}

func loginErrorMessage(err error) string {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.StatusCode == 401 {
			return "Wrong username or password."
		}
	}
	return err.Error()
}
