package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"callqa/internal/calls"
	"callqa/internal/conversation"
)

// cardHeight is a call card's rendered height: two bordered text lines.
const cardHeight = 4

// chatChromeHeight is everything on the chat screen except the timeline.
const chatChromeHeight = 21

func (m Model) View() string {
	if m.quitConfirm {
		return m.theme.root.Render(m.renderQuitModal())
	}
	header := m.renderHeader()
	var content string
	if m.screen == screenCalls {
		content = m.renderCalls()
	} else {
		content = m.renderChat()
	}
	parts := []string{header, content}
	if m.screen == screenChat && m.chat != nil {
		parts = append(parts, m.renderInput())
	}
	parts = append(parts, m.renderFooter())
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) contentWidth() int {
	return maxInt(40, m.width-4)
}

func (m Model) renderHeader() string {
	crumbs := []string{}
	for _, s := range []screen{screenCalls, screenChat} {
		label := "Calls"
		if s == screenChat {
			label = "Chat"
		}
		if s == m.screen {
			crumbs = append(crumbs, m.theme.crumbActive.Render(label))
		} else {
			crumbs = append(crumbs, m.theme.crumbInactive.Render(label))
		}
	}
	line := m.theme.panelTitle.Render("callqa") + "  " + strings.Join(crumbs, " ")
	if m.chat != nil {
		line += "  " + m.theme.helpText.Render("session "+truncate(m.chat.ctl.SessionID(), 8))
	}
	return m.theme.header.Width(m.contentWidth()).Render(line)
}

func (m Model) renderCalls() string {
	width := m.contentWidth()
	title := m.theme.panelTitle.Render("Pick a Call")
	var body string
	switch {
	case m.loading:
		body = m.spinner.View() + " " + m.theme.helpText.Render("loading calls...")
	case m.loadErr != nil:
		body = m.theme.errorStatus.Render("Failed to load calls: "+compactSingleLine(m.loadErr.Error(), 200)) +
			"\n" + m.theme.helpText.Render("Press r to retry.")
	case len(m.calls) == 0:
		body = m.theme.helpText.Render("No calls recorded yet.")
	default:
		visible := m.visibleCards()
		start := clampInt(m.offset, 0, len(m.calls)-1)
		end := minInt(len(m.calls), start+visible)
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCallCard(m.calls[i], i == m.cursor, width-4))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, cards...)
		if len(m.calls) > visible {
			body += "\n" + m.theme.helpText.Render(fmt.Sprintf("%d of %d", m.cursor+1, len(m.calls)))
		}
	}
	return m.theme.panel.Width(width).Render(title + "\n" + body)
}

func (m Model) renderCallCard(call calls.CallMetadata, selected bool, width int) string {
	style := m.theme.card
	if selected {
		style = m.theme.cardSelected
	}
	title := m.theme.cardTitle.Render(truncate(nullCoalesce(call.Title, call.CallID), maxInt(10, width-6)))
	meta := m.theme.helpText.Render(fmt.Sprintf(
		"Start: %s   Duration: %s",
		formatStartTime(call.StartTime, m.location),
		formatDuration(call.Duration),
	))
	return style.Width(maxInt(20, width)).Render(title + "\n" + meta)
}

func (m Model) renderChat() string {
	width := m.contentWidth()
	switch {
	case m.opening != "":
		return m.theme.panel.Width(width).Render(m.spinner.View() + " " + m.theme.helpText.Render("loading call "+m.opening+"..."))
	case m.pageErr != nil:
		return m.theme.panel.Width(width).Render(
			m.theme.panelTitle.Render("Could not open call") + "\n\n" +
				m.theme.errorStatus.Render(compactSingleLine(m.pageErr.Error(), 200)) + "\n\n" +
				m.theme.helpText.Render("Press Esc to pick a call or q to quit."),
		)
	case m.chat == nil:
		return ""
	}

	call := m.chat.call
	names := make([]string, 0, len(call.Parties))
	for _, party := range call.Parties {
		name := nullCoalesce(party.Name, "unknown")
		if party.Profile != nil && strings.TrimSpace(party.Profile.JobTitle) != "" {
			name += " (" + party.Profile.JobTitle + ")"
		}
		names = append(names, name)
	}
	card := m.theme.panel.Width(width).Render(
		m.theme.cardTitle.Render(nullCoalesce(call.Title, call.CallID)) + "\n" +
			m.theme.helpText.Render(fmt.Sprintf("Start: %s   Duration: %s",
				formatStartTime(call.StartTime, m.location), formatDuration(call.Duration))) + "\n" +
			m.theme.helpText.Render("Parties: "+truncate(partyNames(names, 4), maxInt(10, width-14))),
	)

	mark, style := "[ ]", m.theme.toggleOff
	if m.chat.ctl.IncludeHistory() {
		mark, style = "[x]", m.theme.toggleOn
	}
	toggle := style.Render(mark+" Use conversation history") + m.theme.helpText.Render("  (Ctrl+H)")

	timeline := m.theme.panel.Width(width).Render(
		m.theme.panelTitle.Render("Type in your questions") + "\n" + m.timeline.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, card, toggle, timeline)
}

func (m Model) renderTimeline() string {
	if m.chat == nil {
		return ""
	}
	exchanges := m.chat.ctl.Conversation()
	if len(exchanges) == 0 {
		return m.theme.helpText.Render("No questions yet. Type one below and press Enter.")
	}
	width := maxInt(20, m.timeline.Width)
	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.theme.userLabel.Render("User:"))
		b.WriteString("\n")
		b.WriteString(wrapText(ex.Question, width))
		b.WriteString("\n")
		b.WriteString(m.theme.assistantLabel.Render("Assistant:"))
		b.WriteString("\n")
		b.WriteString(m.renderAnswer(ex.Answer, width))
	}
	return b.String()
}

// renderAnswer shows the pending and failure markers as plain text and
// everything else as Markdown.
func (m Model) renderAnswer(answer string, width int) string {
	switch answer {
	case conversation.PendingAnswer:
		return m.theme.pendingAnswer.Render(answer)
	case conversation.FailedAnswer:
		return m.theme.failedAnswer.Render(answer)
	}
	return m.markdown.render(answer, width)
}

func (m Model) renderInput() string {
	inputView := m.input.View()
	if m.chat.ctl.Busy() {
		inputView = m.spinner.View() + " waiting for answer... " + inputView
	}
	return m.theme.inputPanel.Width(m.contentWidth()).Render(inputView)
}

func (m Model) renderFooter() string {
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	last := ""
	if len(m.logs) > 0 {
		last = m.logs[len(m.logs)-1]
	}
	hints := "Keys: Up/Down select · Enter open · r reload · q quit · Ctrl+C quit"
	if m.screen == screenChat {
		hints = "Keys: Enter send · Ctrl+H history · PgUp/PgDn scroll · Esc back to calls · Ctrl+C quit"
	}
	lines := []string{
		statusStyle.Render(compactSingleLine(m.statusLine, 180)),
		m.theme.helpText.Render(compactSingleLine(last, 180)),
		m.theme.helpText.Render(hints),
	}
	return m.theme.footer.Width(m.contentWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 32, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	accent := m.theme.modalAccent.Render(strings.Repeat("=", maxInt(10, modalWidth-8)))
	body := strings.Join([]string{
		m.theme.errorStatus.Render("QUIT CALLQA?"),
		m.theme.helpText.Render("Open conversations are not saved."),
		"",
		accent,
		"",
		m.theme.modalPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(m.theme.background),
	)
}

func (m *Model) renderPanes() {
	prevYOffset := m.timeline.YOffset
	prevAtBottom := m.timeline.AtBottom()

	m.timeline.Width = maxInt(20, m.contentWidth()-4)
	m.timeline.Height = maxInt(5, m.height-chatChromeHeight)
	m.timeline.SetContent(m.renderTimeline())
	if prevAtBottom {
		m.timeline.GotoBottom()
	} else {
		m.timeline.SetYOffset(prevYOffset)
	}
	m.offset = m.clampOffset()
}
