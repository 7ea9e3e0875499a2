package tui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root           lipgloss.Style
	header         lipgloss.Style
	crumbActive    lipgloss.Style
	crumbInactive  lipgloss.Style
	panel          lipgloss.Style
	panelTitle     lipgloss.Style
	footer         lipgloss.Style
	status         lipgloss.Style
	errorStatus    lipgloss.Style
	inputPanel     lipgloss.Style
	helpText       lipgloss.Style
	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	pendingAnswer  lipgloss.Style
	failedAnswer   lipgloss.Style
	card           lipgloss.Style
	cardSelected   lipgloss.Style
	cardTitle      lipgloss.Style
	toggleOn       lipgloss.Style
	toggleOff      lipgloss.Style
	modalFrame     lipgloss.Style
	modalPick      lipgloss.Style
	modalAccent    lipgloss.Style
	background     lipgloss.Color
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		crumbActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		crumbInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:       lipgloss.NewStyle().Foreground(muted),
		userLabel:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		assistantLabel: lipgloss.NewStyle().Foreground(pink).Bold(true),
		pendingAnswer:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		failedAnswer:   lipgloss.NewStyle().Foreground(gold).Bold(true),
		card: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a184a")).
			Padding(0, 1),
		cardSelected: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		cardTitle: lipgloss.NewStyle().Foreground(blue).Bold(true),
		toggleOn:  lipgloss.NewStyle().Foreground(mint).Bold(true),
		toggleOff: lipgloss.NewStyle().Foreground(muted),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		modalPick:   lipgloss.NewStyle().Foreground(pink).Bold(true),
		modalAccent: lipgloss.NewStyle().Foreground(mint).Bold(true),
		background:  bg,
	}
}
