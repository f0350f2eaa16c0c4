package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nfrund/loginflow/internal/hub"
	"github.com/nfrund/loginflow/internal/login"
)

const (
	focusUsername = iota
	focusPassword
	focusRemember
	focusCount
)

// DefaultRefreshInterval is how often the screen re-reads connectivity.
const DefaultRefreshInterval = 5 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("12")).Foreground(lipgloss.Color("0"))
	disabledBtn  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("8")).Foreground(lipgloss.Color("7"))
)

// Options configures the login screen.
type Options struct {
	// RefreshInterval drives RefreshConnectivity; zero means
	// DefaultRefreshInterval, negative disables it.
	RefreshInterval time.Duration
	// OnHome runs once each time a login succeeds.
	OnHome func(s login.State)
}

type stateMsg struct {
	state login.State
	ok    bool
}

type refreshMsg struct{}

type model struct {
	ctrl   *login.Controller
	sub    *hub.Subscription[login.State]
	opts   Options
	inputs []textinput.Model
	focus  int
	state  login.State
	home   bool
}

// Run shows the login screen until the user quits.
func Run(ctrl *login.Controller, opts Options) error {
	m := initialModel(ctrl, opts)
	defer m.sub.Unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func initialModel(ctrl *login.Controller, opts Options) model {
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "Username: "
	user.CharLimit = 256
	user.Width = 32
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Password: "
	pass.CharLimit = 1024
	pass.Width = 32
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	state := ctrl.State()
	user.SetValue(state.Username)
	pass.SetValue(state.Password)

	return model{
		ctrl:   ctrl,
		sub:    ctrl.Subscribe(),
		opts:   opts,
		inputs: []textinput.Model{user, pass},
		state:  state,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.sub), refreshCmd(m.opts.RefreshInterval))
}

func waitForState(sub *hub.Subscription[login.State]) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.C()
		return stateMsg{state: s, ok: ok}
	}
}

func refreshCmd(every time.Duration) tea.Cmd {
	if every < 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.state = msg.state
		if msg.state.NavigateHome && !m.home {
			m.home = true
			if m.opts.OnHome != nil {
				m.opts.OnHome(msg.state)
			}
		}
		return m, waitForState(m.sub)

	case refreshMsg:
		m.ctrl.RefreshConnectivity()
		return m, refreshCmd(m.opts.RefreshInterval)

	case tea.KeyMsg:
		if m.home {
			switch msg.String() {
			case "ctrl+c", "q", "esc", "enter":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m.setFocus((m.focus + 1) % focusCount), nil
		case "shift+tab", "up":
			return m.setFocus((m.focus + focusCount - 1) % focusCount), nil
		case "ctrl+r":
			m.ctrl.RefreshConnectivity()
			return m, nil
		case " ":
			if m.focus == focusRemember {
				m.ctrl.SetRememberMe(!m.ctrl.State().RememberMe)
				return m, nil
			}
		case "enter":
			if m.focus == focusRemember {
				m.ctrl.SetRememberMe(!m.ctrl.State().RememberMe)
				return m, nil
			}
			// The button is disabled until the form can be submitted.
			if m.ctrl.State().CanSubmit() {
				m.ctrl.Login()
			}
			return m, nil
		}
		if m.focus == focusRemember {
			return m, nil
		}
		return m.updateInput(msg)
	}
	return m, nil
}

func (m model) setFocus(i int) model {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	in := m.inputs[m.focus]
	before := in.Value()
	in, cmd := in.Update(msg)
	m.inputs[m.focus] = in

	if after := in.Value(); after != before {
		if m.focus == focusUsername {
			m.ctrl.SetUsername(after)
		} else {
			m.ctrl.SetPassword(after)
		}
	}
	return m, cmd
}

func (m model) View() string {
	if m.home {
		return m.homeView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n")

	if !m.state.IsOnline {
		b.WriteString(offlineStyle.Render("● offline"))
	} else {
		b.WriteString(mutedStyle.Render("● online"))
	}
	b.WriteString("\n\n")

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	box := "[ ]"
	if m.state.RememberMe {
		box = "[x]"
	}
	remember := box + " Remember me"
	if m.focus == focusRemember {
		remember = focusStyle.Render(remember)
	}
	b.WriteString(remember)
	b.WriteString("\n\n")

	switch {
	case m.state.IsSubmitting:
		b.WriteString(disabledBtn.Render("Signing in…"))
	case m.state.CanSubmit():
		b.WriteString(buttonStyle.Render("Sign in"))
	default:
		b.WriteString(disabledBtn.Render("Sign in"))
	}
	b.WriteString("\n")

	if msg, ok := m.state.ErrorText(); ok {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}
	if m.state.FailureCount > 0 && !m.state.IsLockedOut {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d attempts used", m.state.FailureCount, login.MaxFailures)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab: next field • enter: sign in • ctrl+r: recheck network • esc: quit"))
	return b.String()
}

func (m model) homeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Home"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Signed in as %s.\n", m.state.Username))
	if m.state.RememberMe {
		b.WriteString(mutedStyle.Render("You will be remembered on this device."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q: quit"))
	return b.String()
}
