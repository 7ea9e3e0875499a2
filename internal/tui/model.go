// Package tui is the interactive front end: a call picker and one chat
// screen per call, driven by a session.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"callqa/internal/calls"
	"callqa/internal/session"
)

const logRingSize = 50

// Backend is everything the TUI asks of the QA service.
type Backend interface {
	FetchAllCalls(ctx context.Context) ([]calls.CallMetadata, error)
	FetchCallMetadata(ctx context.Context, id string) (calls.CallMetadata, error)
	session.Asker
}

// Options configures the TUI model.
type Options struct {
	Backend        Backend
	Logger         logrus.FieldLogger
	IncludeHistory bool
	// CallID opens that call's chat directly instead of the picker.
	CallID        string
	MarkdownStyle string
	// Location renders start times; nil means time.Local.
	Location *time.Location
}

type screen int

const (
	screenCalls screen = iota
	screenChat
)

type callsLoadedMsg struct {
	calls []calls.CallMetadata
	err   error
}

type callOpenedMsg struct {
	call calls.CallMetadata
	err  error
}

type answerMsg struct {
	chat   *chatPane
	result session.Result
}

// chatPane holds one open chat. It is shared by pointer across model copies
// so controller notifications can mark the timeline stale.
type chatPane struct {
	call   calls.CallMetadata
	ctl    *session.Controller
	cancel func()
	rev    uint64
	drawn  uint64
}

func (p *chatPane) close() {
	if p != nil && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Model is the Bubble Tea model.
type Model struct {
	backend        Backend
	logger         logrus.FieldLogger
	includeHistory bool
	location       *time.Location

	screen     screen
	calls      []calls.CallMetadata
	cursor     int
	offset     int
	loading    bool
	loadErr    error
	opening    string
	pageErr    error
	chat       *chatPane
	statusLine string
	logs       []string

	quitConfirm bool
	width       int
	height      int

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model
	markdown *markdownRenderer
	theme    uiTheme
}

// New builds the model. Init starts the first fetch.
func New(opts Options) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Ask a question about this call"
	input.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	m := Model{
		backend:        opts.Backend,
		logger:         logger,
		includeHistory: opts.IncludeHistory,
		location:       opts.Location,
		screen:         screenCalls,
		loading:        true,
		statusLine:     "loading calls...",
		logs:           []string{},
		input:          input,
		timeline:       timeline,
		spinner:        sp,
		markdown:       newMarkdownRenderer(opts.MarkdownStyle),
		theme:          newTheme(),
	}
	if id := strings.TrimSpace(opts.CallID); id != "" {
		m.screen = screenChat
		m.loading = false
		m.opening = id
		m.statusLine = "loading call " + id + "..."
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.opening != "" {
		return tea.Batch(m.spinner.Tick, m.openCallCmd(m.opening))
	}
	return tea.Batch(m.spinner.Tick, m.loadCallsCmd())
}

func (m Model) loadCallsCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		list, err := backend.FetchAllCalls(context.Background())
		return callsLoadedMsg{calls: list, err: err}
	}
}

func (m Model) openCallCmd(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		meta, err := backend.FetchCallMetadata(context.Background(), id)
		return callOpenedMsg{call: meta, err: err}
	}
}

func askCmd(pane *chatPane, req *session.Request) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{chat: pane, result: req.Do(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case callsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			m.calls = nil
			m.logError(fmt.Errorf("load calls: %w", msg.err))
			break
		}
		m.loadErr = nil
		m.calls = msg.calls
		m.cursor = clampInt(m.cursor, 0, maxInt(0, len(m.calls)-1))
		m.offset = m.clampOffset()
		m.statusLine = fmt.Sprintf("%d calls", len(m.calls))
		m.appendLog(m.statusLine + " loaded")
	case callOpenedMsg:
		if m.screen != screenChat || m.opening == "" {
			break
		}
		m.opening = ""
		if msg.err != nil {
			m.pageErr = msg.err
			m.logError(fmt.Errorf("load call: %w", msg.err))
			break
		}
		cmds = append(cmds, m.openChat(msg.call))
	case answerMsg:
		// The exchange is settled even when its chat is no longer on screen.
		exchange := msg.chat.ctl.Settle(msg.result)
		if msg.result.Failed() {
			m.logError(fmt.Errorf("ask %s: %w", msg.chat.ctl.CallID(), msg.result.Err))
		} else {
			m.statusLine = "answered"
			m.appendLog("answered: " + compactSingleLine(exchange.Question, 80))
		}
		if msg.chat == m.chat {
			cmds = append(cmds, m.input.Focus())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.screen == screenChat && m.chat != nil && !m.quitConfirm {
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.chat.close()
			return m, tea.Quit
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "enter":
				m.chat.close()
				return m, tea.Quit
			case "n", "esc", "q":
				m.quitConfirm = false
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.screen == screenCalls {
			m, cmd = m.updateCalls(msg)
		} else {
			m, cmd = m.updateChat(msg)
		}
		cmds = append(cmds, cmd)
	}

	m.syncChat()
	return m, tea.Batch(cmds...)
}

func (m Model) updateCalls(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitConfirm = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.calls)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = maxInt(0, len(m.calls)-1)
	case "r":
		if m.loading {
			return m, nil
		}
		return m.reloadCalls()
	case "enter":
		if m.loading || len(m.calls) == 0 {
			return m, nil
		}
		cmd := m.openChat(m.calls[m.cursor])
		return m, cmd
	}
	m.offset = m.clampOffset()
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.chat == nil {
		// Opening, or the call failed to load.
		switch msg.String() {
		case "esc":
			return m.backToCalls()
		case "q":
			m.quitConfirm = true
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m.backToCalls()
	case "ctrl+h", "ctrl+t":
		on := m.chat.ctl.ToggleHistory()
		m.statusLine = "conversation history " + onOff(on)
		m.appendLog(m.statusLine)
		return m, nil
	case "pgup":
		m.timeline.ViewUp()
		return m, nil
	case "pgdown":
		m.timeline.ViewDown()
		return m, nil
	case "enter":
		return m.submit()
	}

	if m.chat.ctl.Busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.chat.ctl.SetDraft(m.input.Value())
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	ctl := m.chat.ctl
	ctl.SetDraft(m.input.Value())
	req, err := ctl.SubmitDraft()
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.statusLine = "waiting for the previous answer"
		return m, nil
	case err != nil:
		m.logError(err)
		return m, nil
	}
	m.input.SetValue(ctl.Draft())
	m.input.Blur()
	m.statusLine = "asking..."
	m.appendLog(fmt.Sprintf("asked (%d history messages): %s", len(req.History), compactSingleLine(req.Question, 80)))
	return m, askCmd(m.chat, req)
}

func (m *Model) openChat(call calls.CallMetadata) tea.Cmd {
	m.chat.close()
	ctl, err := session.New(session.Options{
		CallID:         call.CallID,
		Backend:        m.backend,
		Logger:         m.logger,
		IncludeHistory: m.includeHistory,
	})
	if err != nil {
		m.pageErr = err
		m.logError(err)
		m.screen = screenChat
		return nil
	}
	pane := &chatPane{call: call, ctl: ctl}
	pane.cancel = ctl.Subscribe(func() { pane.rev++ })
	pane.rev++
	m.chat = pane
	m.pageErr = nil
	m.screen = screenChat
	m.input.SetValue("")
	m.timeline.GotoTop()
	m.statusLine = "chatting about " + nullCoalesce(call.Title, call.CallID)
	m.appendLog("opened " + call.CallID)
	return m.input.Focus()
}

// backToCalls leaves the chat. Its conversation is discarded and the list is
// fetched again.
func (m Model) backToCalls() (Model, tea.Cmd) {
	if m.chat != nil {
		m.includeHistory = m.chat.ctl.IncludeHistory()
		m.chat.close()
	}
	m.chat = nil
	m.opening = ""
	m.pageErr = nil
	m.screen = screenCalls
	m.input.Blur()
	m.input.SetValue("")
	return m.reloadCalls()
}

func (m Model) reloadCalls() (Model, tea.Cmd) {
	m.loading = true
	m.loadErr = nil
	m.statusLine = "loading calls..."
	return m, m.loadCallsCmd()
}

// syncChat redraws the timeline when the open chat changed since the last
// draw.
func (m *Model) syncChat() {
	if m.chat == nil || m.chat.rev == m.chat.drawn {
		return
	}
	m.chat.drawn = m.chat.rev
	m.renderPanes()
}

func (m Model) clampOffset() int {
	visible := m.visibleCards()
	offset := m.offset
	if m.cursor < offset {
		offset = m.cursor
	}
	if m.cursor >= offset+visible {
		offset = m.cursor - visible + 1
	}
	return clampInt(offset, 0, maxInt(0, len(m.calls)-visible))
}

func (m Model) visibleCards() int {
	return maxInt(1, (m.height-10)/cardHeight)
}

func (m *Model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > logRingSize {
		m.logs = m.logs[len(m.logs)-logRingSize:]
	}
}

func (m *Model) logError(err error) {
	if err == nil {
		return
	}
	m.appendLog("error: " + err.Error())
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
