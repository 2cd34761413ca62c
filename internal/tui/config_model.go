package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/render"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewChoice
)

// settingKind distinguishes toggles from pick-one settings
type settingKind int

const (
	settingToggle settingKind = iota
	settingChoice
	settingExit
)

// setting is one row of the config menu
type setting struct {
	label   string
	kind    settingKind
	choices func() []string
	get     func(*config.Config) string
	toggle  func(*config.Config) bool
	set     func(*config.Config, string)
}

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel is the interactive settings editor
type ConfigModel struct {
	config     config.Config
	configPath string
	save       func(config.Config) error
	settings   []setting

	view         configView
	cursor       int
	choiceCursor int

	feedback        string
	feedbackTimeout time.Duration

	width  int
	height int
	ready  bool
}

func defaultSettings() []setting {
	return []setting{
		{
			label: "Verbose Logging",
			kind:  settingToggle,
			toggle: func(c *config.Config) bool {
				c.Verbose = !c.Verbose
				return c.Verbose
			},
			get: func(c *config.Config) string { return boolString(c.Verbose) },
		},
		{
			label: "Copy Replies",
			kind:  settingToggle,
			toggle: func(c *config.Config) bool {
				c.CopyToClipboard = !c.CopyToClipboard
				return c.CopyToClipboard
			},
			get: func(c *config.Config) string { return boolString(c.CopyToClipboard) },
		},
		{
			label: "Markdown Reports",
			kind:  settingToggle,
			toggle: func(c *config.Config) bool {
				c.Markdown.Enabled = !c.Markdown.Enabled
				return c.Markdown.Enabled
			},
			get: func(c *config.Config) string { return boolString(c.Markdown.Enabled) },
		},
		{
			label:   "Markdown Theme",
			kind:    settingChoice,
			choices: render.AvailableStyles,
			get:     func(c *config.Config) string { return c.Markdown.Style },
			set:     func(c *config.Config, v string) { c.Markdown.Style = v },
		},
		{
			label:   "TUI Theme",
			kind:    settingChoice,
			choices: render.TUIThemeNames,
			get:     func(c *config.Config) string { return c.TUITheme },
			set: func(c *config.Config, v string) {
				c.TUITheme = v
				render.SetTUITheme(v)
				UpdateTheme()
			},
		},
		{label: "Exit", kind: settingExit},
	}
}

func boolString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// NewConfigModel creates a settings editor over cfg. save persists each
// change as it is made.
func NewConfigModel(cfg config.Config, configPath string, save func(config.Config) error) ConfigModel {
	if cfg.TUITheme != "" {
		render.SetTUITheme(cfg.TUITheme)
		UpdateTheme()
	}
	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		save:            save,
		settings:        defaultSettings(),
		feedbackTimeout: 2 * time.Second,
	}
}

// Config returns the settings as currently edited
func (m ConfigModel) Config() config.Config {
	return m.config
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view == viewChoice {
				m.view = viewMain
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

// move steps the active cursor, wrapping at both ends
func (m *ConfigModel) move(delta int) {
	if m.view == viewChoice {
		n := len(m.settings[m.cursor].choices())
		m.choiceCursor = (m.choiceCursor + delta + n) % n
		return
	}
	n := len(m.settings)
	m.cursor = (m.cursor + delta + n) % n
}

func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	s := m.settings[m.cursor]

	if m.view == viewChoice {
		value := s.choices()[m.choiceCursor]
		s.set(&m.config, value)
		m.view = viewMain
		cmd := m.persist(fmt.Sprintf("%s set to %s", s.label, value))
		return m, cmd
	}

	switch s.kind {
	case settingExit:
		return m, tea.Quit
	case settingToggle:
		on := s.toggle(&m.config)
		cmd := m.persist(fmt.Sprintf("%s %s", s.label, boolString(on)))
		return m, cmd
	case settingChoice:
		m.view = viewChoice
		m.choiceCursor = 0
		current := s.get(&m.config)
		for i, c := range s.choices() {
			if c == current {
				m.choiceCursor = i
				break
			}
		}
	}
	return m, nil
}

// persist saves the config and sets the feedback line
func (m *ConfigModel) persist(done string) tea.Cmd {
	if err := m.save(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
	} else {
		m.feedback = done
	}
	return clearFeedback(m.feedbackTimeout)
}

// View renders the settings editor
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var body string
	if m.view == viewChoice {
		body = m.renderChoices()
	} else {
		body = m.renderMain()
	}

	sections := []string{
		settingsPanelStyle.Width(contentWidth).Render(body),
	}
	if m.feedback != "" {
		sections = append(sections, flashStyle.Render("✓ "+m.feedback))
	}
	sections = append(sections, statusBarStyle.Width(contentWidth).Align(lipgloss.Center).Render(
		statusKeyStyle.Render("↑↓")+statusDescStyle.Render(" Move")+"  │  "+
			statusKeyStyle.Render("Enter")+statusDescStyle.Render(" Select")+"  │  "+
			statusKeyStyle.Render("Esc")+statusDescStyle.Render(" Back"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) renderMain() string {
	lines := []string{
		settingsTitleStyle.Render("✦ Configuration"),
		settingsPathStyle.Render(m.configPath),
		"",
	}

	width := 0
	for _, s := range m.settings {
		if len(s.label) > width {
			width = len(s.label)
		}
	}

	for i, s := range m.settings {
		cursor, style := "  ", settingsItemStyle
		if i == m.cursor {
			cursor, style = "▸ ", settingsSelectedStyle
		}
		if s.kind == settingExit {
			lines = append(lines, "", cursor+style.Render(s.label))
			continue
		}

		value := s.get(&m.config)
		var rendered string
		switch {
		case s.kind != settingToggle:
			rendered = settingsValueStyle.Render(value)
		case value == "enabled":
			rendered = enabledStyle.Render(value)
		default:
			rendered = disabledStyle.Render(value)
		}
		pad := strings.Repeat(" ", width-len(s.label)+3)
		lines = append(lines, cursor+style.Render(s.label)+pad+rendered)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderChoices() string {
	s := m.settings[m.cursor]
	current := s.get(&m.config)

	lines := []string{settingsTitleStyle.Render(s.label), ""}
	for i, c := range s.choices() {
		cursor, style := "  ", settingsItemStyle
		if i == m.choiceCursor {
			cursor, style = "▸ ", settingsSelectedStyle
		}
		line := cursor + style.Render(c)
		if c == current {
			line += settingsValueStyle.Render("  (current)")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RunConfig starts the settings editor
func RunConfig(cfg config.Config, configPath string, save func(config.Config) error) error {
	p := tea.NewProgram(NewConfigModel(cfg, configPath, save), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
