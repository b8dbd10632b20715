package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/farum-board/internal/app/board"
	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
)

// auth form field indices
const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

type op string

const (
	opInit    op = "init"
	opAuth    op = "auth"
	opPost    op = "post"
	opLogout  op = "logout"
	opRefresh op = "refresh"
)

// stateMsg carries the controller state after an operation finished.
type stateMsg struct {
	op    op
	state board.State
}

type tickMsg time.Time

type Options struct {
	// PollInterval refreshes the feed periodically; 0 disables it.
	PollInterval time.Duration
}

// Model is the bubbletea model of the board. All external calls go through
// the controller and run as commands.
type Model struct {
	ctrl *board.Controller
	ctx  context.Context
	opts Options

	state   board.State
	pending int

	email    textinput.Model
	password textinput.Model
	focus    int

	draft   textarea.Model
	feed    viewport.Model
	spinner spinner.Model

	width  int
	height int
}

func NewModel(ctx context.Context, ctrl *board.Controller, opts Options) Model {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 256

	draft := textarea.New()
	draft.Placeholder = "Write your message..."
	draft.ShowLineNumbers = false
	draft.CharLimit = 2000
	draft.SetHeight(3)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:     ctrl,
		ctx:      ctx,
		opts:     opts,
		state:    ctrl.Snapshot(),
		pending:  1, // Initialize, started by Init
		email:    email,
		password: password,
		draft:    draft,
		feed:     viewport.New(80, 20),
		spinner:  sp,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(opInit, m.ctrl.Initialize),
		m.spinner.Tick,
		textinput.Blink,
		m.scheduleTick(),
	)
}

// run executes fn on the controller off the UI goroutine.
func (m Model) run(o op, fn func(ctx context.Context)) tea.Cmd {
	ctrl := m.ctrl
	parent := m.ctx
	return func() tea.Msg {
		ctx := observability.NewTrace(parent)
		fn(ctx)
		return stateMsg{op: o, state: ctrl.Snapshot()}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	if m.opts.PollInterval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) busy() bool {
	return m.pending > 0 || m.state.Busy
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		return m.applyState(msg), nil

	case tickMsg:
		cmds := []tea.Cmd{m.scheduleTick()}
		if !m.busy() {
			m.pending++
			cmds = append(cmds, m.run(opRefresh, func(ctx context.Context) {
				_ = m.ctrl.RefreshFeed(ctx)
			}))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.LoggedIn() {
			return m.updateFeed(msg)
		}
		return m.updateAuth(msg)
	}

	return m, nil
}

func (m Model) applyState(msg stateMsg) Model {
	if m.pending > 0 {
		m.pending--
	}
	wasLoggedIn := m.state.LoggedIn()
	m.state = msg.state

	switch msg.op {
	case opPost, opLogout:
		m.draft.SetValue(m.state.Draft)
	}

	if m.state.LoggedIn() && !wasLoggedIn {
		m.email.Blur()
		m.password.Blur()
		m.password.SetValue("")
		m.draft.Focus()
	}
	if !m.state.LoggedIn() && wasLoggedIn {
		m.draft.Blur()
		m.focus = fieldEmail
		m.email.Focus()
	}

	m.feed.SetContent(renderFeed(m.state.Feed, m.feed.Width))
	return m
}

func (m *Model) layout() {
	m.draft.SetWidth(max(m.width-4, 10))
	m.feed.Width = max(m.width-2, 10)
	// header, error line, draft box, feed title, help
	m.feed.Height = max(m.height-12, 3)
	m.feed.SetContent(renderFeed(m.state.Feed, m.feed.Width))
}

// ─────────────────────────────────────────────
// Auth screen
// ─────────────────────────────────────────────

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.blurCurrent()
		if msg.String() == "shift+tab" || msg.String() == "up" {
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
		} else {
			m.focus = (m.focus + 1) % fieldCount
		}
		return m, m.focusCurrent()

	case "ctrl+t":
		if m.busy() {
			return m, nil
		}
		m.ctrl.ToggleMode()
		m.state = m.ctrl.Snapshot()
		return m, nil

	case "enter":
		if m.busy() {
			return m, nil
		}
		identifier, secret := m.email.Value(), m.password.Value()
		mode := m.state.Mode
		m.ctrl.SetIdentifier(identifier)
		m.pending++
		return m, m.run(opAuth, func(ctx context.Context) {
			_ = m.ctrl.Authenticate(ctx, mode, identifier, secret)
		})
	}

	var cmd tea.Cmd
	if m.focus == fieldEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) blurCurrent() {
	if m.focus == fieldEmail {
		m.email.Blur()
	} else {
		m.password.Blur()
	}
}

func (m *Model) focusCurrent() tea.Cmd {
	if m.focus == fieldEmail {
		return m.email.Focus()
	}
	return m.password.Focus()
}

// ─────────────────────────────────────────────
// Feed screen
// ─────────────────────────────────────────────

func (m Model) updateFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		if m.busy() {
			return m, nil
		}
		content := m.draft.Value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		m.pending++
		return m, m.run(opPost, func(ctx context.Context) {
			_ = m.ctrl.PostMessage(ctx, content)
		})

	case "ctrl+r":
		if m.busy() {
			return m, nil
		}
		m.pending++
		return m, m.run(opRefresh, func(ctx context.Context) {
			_ = m.ctrl.RefreshFeed(ctx)
		})

	case "ctrl+l":
		if m.busy() {
			return m, nil
		}
		m.pending++
		return m, m.run(opLogout, func(ctx context.Context) {
			_ = m.ctrl.Logout(ctx)
		})

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	m.ctrl.SetDraft(m.draft.Value())
	return m, cmd
}

// ─────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────

func (m Model) View() string {
	if m.state.LoggedIn() {
		return m.viewFeed()
	}
	return m.viewAuth()
}

func (m Model) statusLine() string {
	if m.busy() {
		return m.spinner.View() + dimStyle.Render(" Processing...")
	}
	if m.state.Err != "" {
		return errorStyle.Render(m.state.Err)
	}
	return ""
}

func (m Model) viewAuth() string {
	title := "Login"
	toggle := "Don't have an account? ctrl+t: Register"
	if m.state.Mode == domain.AuthModeRegister {
		title = "Register"
		toggle = "Already have an account? ctrl+t: Login"
	}

	content := fmt.Sprintf(
		"%s\n\n%s\n\n%s  %s\n\n%s  %s\n\n%s\n%s",
		titleStyle.Render(title),
		m.statusLine(),
		fieldLabel("Email:", m.focus == fieldEmail), m.email.View(),
		fieldLabel("Password:", m.focus == fieldPassword), m.password.View(),
		helpStyle.Render("Enter: submit  Tab: next field  ctrl+c: quit"),
		helpStyle.Render(toggle),
	)

	box := boxStyle.Render(content)
	feedBox := lipgloss.NewStyle().Width(m.width).Render(
		feedTitle(len(m.state.Feed)) + "\n" + m.feed.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box),
		feedBox,
	)
}

func (m Model) viewFeed() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Message Board"),
		dimStyle.Render(fmt.Sprintf("Welcome, %s!", m.state.Account.DisplayName())),
	)

	return strings.Join([]string{
		header,
		m.statusLine(),
		m.draft.View(),
		feedTitle(len(m.state.Feed)),
		m.feed.View(),
		helpStyle.Render("ctrl+s: post  ctrl+r: refresh  ctrl+l: logout  pgup/pgdown: scroll  ctrl+c: quit"),
	}, "\n")
}
