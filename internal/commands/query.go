package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/exchange"
	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/render"
	"github.com/diogo/learnchat/internal/transcript"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
}

// spinner handles the animated loading indicator
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	started bool
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")
		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString("●")
		} else {
			dots.WriteString("○")
		}
	}

	fmt.Fprintf(s.w, "\r\033[K%s %s %s", spinnerChar, s.message, dots.String())
}

// halt stops the animation and waits for the line to be cleared. It is
// safe to call more than once, and before start.
func (s *spinner) halt() {
	s.mu.Lock()
	if s.stopped || !s.started {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()
	<-s.done
}

// consoleSurface drives the one-shot exchange: the spinner runs while
// submission is disabled
type consoleSurface struct {
	spin *spinner
}

func (c *consoleSurface) ClearInput() {}

func (c *consoleSurface) FocusInput() {}

func (c *consoleSurface) SetSubmitEnabled(enabled bool) {
	if c.spin == nil {
		return
	}
	if enabled {
		c.spin.halt()
	} else {
		c.spin.start()
	}
}

// runQuery sends a single message through the exchange controller and
// prints the outcome
func (a *app) runQuery(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return apierrors.ErrEmptyMessage
	}

	cfg := a.config()
	logger := a.logger(cfg)
	defer func() { _ = logger.Sync() }()

	client, err := a.deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	decorated := !a.rawFlag && a.deps.StdoutIsTTY()
	surface := &consoleSurface{}
	if decorated {
		surface.spin = newSpinner(a.deps.Stderr, "Waiting for reply")
	}

	tr := transcript.New()
	ctrl := exchange.New(client, tr,
		exchange.WithSurface(surface),
		exchange.WithPlaceholder(cfg.Placeholder),
		exchange.WithLogger(logger),
	)

	ex, err := ctrl.Begin(prompt)
	if err != nil {
		return err
	}
	res := ex.Send(ctx)
	ctrl.Finish(ex, res)

	if a.outputFlag != "" {
		return a.writeOutput(tr, res, decorated)
	}
	if res.Err != nil {
		return res.Err
	}
	reply := res.Reply

	if !decorated {
		fmt.Fprintln(a.deps.Stdout, reply.Message)
		return nil
	}

	if cfg.CopyToClipboard {
		if err := a.deps.Clipboard(reply.Message); err != nil {
			fmt.Fprintln(a.deps.Stderr, warnStyle().Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(a.deps.Stderr, successStyle().Render("✓ Copied to clipboard"))
		}
	}

	fmt.Fprintln(a.deps.Stdout, renderReply(reply, a.bubbleWidth()))
	return nil
}

// writeOutput saves the exchange to the --output file. An HTML path gets
// the whole transcript, failures included; any other path gets the reply.
func (a *app) writeOutput(tr *transcript.Transcript, res exchange.Result, decorated bool) error {
	var data, what string
	if isHTMLPath(a.outputFlag) {
		data, what = tr.Document(), "Transcript"
	} else {
		if res.Err != nil {
			return res.Err
		}
		data, what = res.Reply.Message+"\n", "Reply"
	}

	if err := os.WriteFile(a.outputFlag, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if decorated {
		fmt.Fprintln(a.deps.Stderr, successStyle().Render(fmt.Sprintf("✓ %s saved to %s", what, a.outputFlag)))
	}
	return res.Err
}

func isHTMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

func (a *app) bubbleWidth() int {
	width := a.deps.TerminalWidth() - 4
	if width < 40 {
		width = 40
	}
	if width > 120 {
		width = 120
	}
	return width
}

// renderReply draws the reply like the chat widget does: literal text in
// an assistant bubble with a provenance footer
func renderReply(reply *models.ChatReply, width int) string {
	theme := render.GetTUITheme()
	color := theme.RoleColor(models.RoleAssistant)

	label := lipgloss.NewStyle().Foreground(color).Bold(true).Render("✦ " + transcript.Label(models.RoleAssistant))
	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Foreground(theme.Text).
		Padding(0, 1).
		Width(width).
		Render(transcript.TerminalSafe(reply.Message))

	parts := []string{label, bubble}
	if reply.Source != "" {
		footer := fmt.Sprintf("%s · %d learned", reply.Source, reply.Learned)
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render(footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Assistant)
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Error)
}
