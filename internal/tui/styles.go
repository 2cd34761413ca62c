// Package tui provides the terminal chat widget for learnchat.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/render"
)

// Color variables (updated from theme)
var (
	colorBorder  lipgloss.Color
	colorAccent  lipgloss.Color
	colorError   lipgloss.Color
	colorText    lipgloss.Color
	colorTextDim lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style
	provisionalStyle  lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	flashStyle      lipgloss.Style

	errorStyle lipgloss.Style

	welcomeTitleStyle lipgloss.Style
	welcomeStyle      lipgloss.Style

	// Settings menu
	settingsPanelStyle    lipgloss.Style
	settingsTitleStyle    lipgloss.Style
	settingsItemStyle     lipgloss.Style
	settingsSelectedStyle lipgloss.Style
	settingsValueStyle    lipgloss.Style
	settingsPathStyle     lipgloss.Style
	enabledStyle          lipgloss.Style
	disabledStyle         lipgloss.Style
)

// roleLabels and roleBubbles are keyed by speaker role
var (
	roleLabels  map[models.Role]lipgloss.Style
	roleBubbles map[models.Role]lipgloss.Style
)

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorBorder = theme.Border
	colorAccent = theme.Accent
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim

	rebuildStyles(theme)
}

func rebuildStyles(theme render.TUITheme) {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	provisionalStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(theme.User).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	flashStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Align(lipgloss.Center)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	roleLabels = make(map[models.Role]lipgloss.Style, 3)
	roleBubbles = make(map[models.Role]lipgloss.Style, 3)
	for _, role := range []models.Role{models.RoleUser, models.RoleAssistant, models.RoleSystemError} {
		c := theme.RoleColor(role)
		roleLabels[role] = lipgloss.NewStyle().Foreground(c).Bold(true)
		bubble := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Foreground(colorText).
			Padding(0, 1)
		switch role {
		case models.RoleUser:
			bubble = bubble.MarginLeft(4)
		case models.RoleAssistant:
			bubble = bubble.MarginRight(4)
		case models.RoleSystemError:
			bubble = bubble.Foreground(c)
		}
		roleBubbles[role] = bubble
	}

	settingsPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2)

	settingsTitleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		MarginBottom(1)

	settingsItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	settingsSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	settingsValueStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	settingsPathStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	enabledStyle = lipgloss.NewStyle().
		Foreground(theme.Assistant)

	disabledStyle = lipgloss.NewStyle().
		Foreground(colorError)
}

// FormatError returns a styled error message with a hint for the common
// failure kinds
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case errors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The server is rate limiting this address. Wait a moment and retry"))
	case errors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The server took too long. Try again or raise timeout_seconds"))
	case errors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Is the backend running? Start it with 'learnchat serve'"))
	}

	return sb.String()
}
