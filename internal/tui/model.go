package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/exchange"
	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/render"
	"github.com/diogo/learnchat/internal/transcript"
)

// flashDuration is how long a status notice stays visible
const flashDuration = 2 * time.Second

// Message types for the TUI
type (
	// exchangeDoneMsg carries the transport result back to Update
	exchangeDoneMsg struct {
		ex  *exchange.Exchange
		res exchange.Result
	}
	flashClearMsg struct{}
)

// inputSurface records what the controller asked of the input so Update
// can apply it to the textarea and viewport
type inputSurface struct {
	clear    bool
	focus    bool
	scroll   bool
	disabled bool
}

func (s *inputSurface) ClearInput() { s.clear = true }

func (s *inputSurface) SetSubmitEnabled(enabled bool) { s.disabled = !enabled }

func (s *inputSurface) FocusInput() { s.focus = true }

func (s *inputSurface) ScrollToBottom() { s.scroll = true }

// Model represents the chat widget state
type Model struct {
	ctrl      *exchange.Controller
	tr        *transcript.Transcript
	surface   *inputSurface
	serverURL string
	mdOpts    render.Options

	copyToClipboard bool
	writeClipboard  func(string) error
	exportDir       string
	now             func() time.Time
	logger          *zap.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	lastReply *models.ChatReply
	showHelp  bool
	flash     string
	ready     bool

	width  int
	height int
}

// ModelOption configures a Model
type ModelOption func(*Model)

// WithLogger sets the logger handed to the exchange controller
func WithLogger(l *zap.Logger) ModelOption {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClipboard replaces the system clipboard writer
func WithClipboard(write func(string) error) ModelOption {
	return func(m *Model) {
		m.writeClipboard = write
	}
}

// WithExportDir sets where Ctrl+E writes transcripts
func WithExportDir(dir string) ModelOption {
	return func(m *Model) {
		m.exportDir = dir
	}
}

// NewChatModel creates a chat widget that posts through transport
func NewChatModel(transport exchange.Transport, cfg config.Config, opts ...ModelOption) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		surface:         &inputSurface{},
		serverURL:       cfg.ServerURL,
		mdOpts:          render.OptionsFromConfig(cfg),
		copyToClipboard: cfg.CopyToClipboard,
		writeClipboard:  clipboard.WriteAll,
		exportDir:       ".",
		now:             time.Now,
		logger:          zap.NewNop(),
		textarea:        ta,
		spinner:         s,
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.tr = transcript.New(transcript.WithScroller(m.surface))
	m.ctrl = exchange.New(transport, m.tr,
		exchange.WithSurface(m.surface),
		exchange.WithPlaceholder(cfg.Placeholder),
		exchange.WithLogger(m.logger),
	)
	return m
}

// Transcript returns the widget's transcript
func (m Model) Transcript() *transcript.Transcript {
	return m.tr
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.showHelp {
				m.showHelp = false
				m.refreshViewport()
				return m, nil
			}
			return m, tea.Quit

		case "f1":
			m.showHelp = !m.showHelp
			m.refreshViewport()
			if !m.showHelp {
				m.viewport.GotoBottom()
			}
			return m, nil

		case "ctrl+y":
			cmd := m.copyLastReply()
			return m, cmd

		case "ctrl+e":
			path, err := m.exportTranscript()
			if err != nil {
				cmd = m.setFlash("Export failed: " + err.Error())
			} else {
				cmd = m.setFlash("Transcript saved to " + path)
			}
			return m, cmd

		case "enter":
			return m.submit()
		}

	case exchangeDoneMsg:
		if m.ctrl.Finish(msg.ex, msg.res) == exchange.OutcomeReplied {
			m.lastReply = msg.res.Reply
			if m.copyToClipboard {
				if err := m.writeClipboard(msg.res.Reply.Message); err != nil {
					m.logger.Debug("clipboard write failed", zap.Error(err))
				}
			}
		}
		cmds = append(cmds, m.applySurface())

	case spinner.TickMsg:
		if m.ctrl.InFlight() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.refreshViewport()
		}

	case flashClearMsg:
		m.flash = ""
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks. Typing
	// continues while a reply is pending; only Enter is gated.
	if _, ok := msg.(tea.KeyMsg); ok {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the input to the controller and starts the transport call
func (m Model) submit() (tea.Model, tea.Cmd) {
	ex, err := m.ctrl.Begin(m.textarea.Value())
	if errors.Is(err, exchange.ErrBusy) {
		cmd := m.setFlash("Still waiting for the last reply")
		return m, cmd
	}
	if ex == nil {
		return m, nil
	}

	m.showHelp = false
	focusCmd := m.applySurface()

	// The transport timeout is the only bound on the call
	return m, tea.Batch(
		focusCmd,
		send(context.Background(), ex),
		m.spinner.Tick,
	)
}

// send runs the transport call off the update loop. A panicking transport
// resolves the exchange as a failure.
func send(ctx context.Context, ex *exchange.Exchange) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = exchangeDoneMsg{ex: ex, res: exchange.Result{Err: fmt.Errorf("transport panic: %v", r)}}
			}
		}()
		return exchangeDoneMsg{ex: ex, res: ex.Send(ctx)}
	}
}

// applySurface applies the effects the controller recorded
func (m *Model) applySurface() tea.Cmd {
	s := m.surface
	var cmd tea.Cmd

	if s.clear {
		m.textarea.Reset()
		s.clear = false
	}
	if s.focus && !s.disabled {
		cmd = m.textarea.Focus()
		s.focus = false
	}

	m.refreshViewport()
	if s.scroll {
		m.viewport.GotoBottom()
		s.scroll = false
	}
	return cmd
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flash = text
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// copyLastReply puts the newest assistant reply on the clipboard
func (m *Model) copyLastReply() tea.Cmd {
	entry, ok := m.tr.LastOf(models.RoleAssistant)
	if !ok {
		return m.setFlash("Nothing to copy yet")
	}
	if err := m.writeClipboard(entry.Message.Text); err != nil {
		return m.setFlash("Copy failed: " + err.Error())
	}
	return m.setFlash("Reply copied to clipboard")
}

// exportTranscript writes the transcript as a standalone HTML page
func (m Model) exportTranscript() (string, error) {
	if err := os.MkdirAll(m.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("learnchat-%s.html", m.now().Format("20060102-150405"))
	path := filepath.Join(m.exportDir, name)
	if err := os.WriteFile(path, []byte(m.tr.Document()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}

// refreshViewport re-renders the transcript (or the help page) into the
// viewport
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.viewport.Width - 4
	if width < 10 {
		width = 10
	}

	if m.showHelp {
		help, err := render.Markdown(render.HelpText, m.mdOpts.WithWidth(width))
		if err != nil {
			help = render.HelpText
		}
		m.viewport.SetContent(strings.TrimRight(help, "\n"))
		m.viewport.GotoTop()
		return
	}

	entries := m.tr.Entries()
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, m.renderEntry(e, width))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

// renderEntry draws one transcript entry. Entry text is always shown as
// literal characters.
func (m Model) renderEntry(e transcript.Entry, width int) string {
	text := transcript.TerminalSafe(e.Message.Text)
	if e.Message.Provisional {
		return provisionalStyle.Render(m.spinner.View() + " " + text)
	}

	label := transcript.Label(e.Message.Role)
	if label == "" {
		label = "!"
	}
	labelStyle, ok := roleLabels[e.Message.Role]
	if !ok {
		labelStyle = lipgloss.NewStyle()
	}
	bubble, ok := roleBubbles[e.Message.Role]
	if !ok {
		bubble = lipgloss.NewStyle()
	}
	return labelStyle.Render(label) + "\n" + bubble.Width(width).Render(text)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	// Header
	headerParts := []string{
		titleStyle.Render("✦ learnchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.serverURL),
	}
	if m.lastReply != nil {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(fmt.Sprintf("%d learned", m.lastReply.Learned)),
		)
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...),
	)
	sections = append(sections, header)

	// Messages
	var messagesContent string
	if m.tr.Len() == 0 && !m.showHelp {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input stays editable while waiting; the label line shows the wait
	label := inputLabelStyle.Render("You")
	if m.ctrl.InFlight() {
		label = loadingStyle.Render(m.spinner.View() + " Waiting for reply")
	}
	inputContent := lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Status
	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to learnchat"),
		"",
		welcomeStyle.Width(width).Render("Ask anything. Answers you get are remembered for next time."),
		welcomeStyle.Width(width).Render("Press F1 for keys."),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.flash != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(flashStyle.Render(m.flash))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy"},
		{"Ctrl+E", "Export"},
		{"F1", "Help"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat starts the chat TUI
func RunChat(transport exchange.Transport, cfg config.Config, opts ...ModelOption) error {
	p := tea.NewProgram(
		NewChatModel(transport, cfg, opts...),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
