package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/learnchat/internal/models"
)

// TUITheme is the color scheme of the chat widget
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Speaker colors
	User      lipgloss.Color
	Assistant lipgloss.Color
	Error     lipgloss.Color

	Accent  lipgloss.Color
	Text    lipgloss.Color
	TextDim lipgloss.Color
}

// RoleColor returns the color used for entries of the given role
func (t TUITheme) RoleColor(role models.Role) lipgloss.Color {
	switch role {
	case models.RoleUser:
		return t.User
	case models.RoleAssistant:
		return t.Assistant
	case models.RoleSystemError:
		return t.Error
	default:
		return t.Text
	}
}

// Built-in TUI themes
var (
	// TokyoNightTheme is the default
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night, blue on deep navy",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		User:      lipgloss.Color("#7aa2f7"),
		Assistant: lipgloss.Color("#9ece6a"),
		Error:     lipgloss.Color("#f7768e"),

		Accent:  lipgloss.Color("#bb9af7"),
		Text:    lipgloss.Color("#c0caf5"),
		TextDim: lipgloss.Color("#565f89"),
	}

	CatppuccinMochaTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha pastels",

		Background: lipgloss.Color("#1e1e2e"),
		Surface:    lipgloss.Color("#313244"),
		Border:     lipgloss.Color("#45475a"),

		User:      lipgloss.Color("#89b4fa"),
		Assistant: lipgloss.Color("#a6e3a1"),
		Error:     lipgloss.Color("#f38ba8"),

		Accent:  lipgloss.Color("#cba6f7"),
		Text:    lipgloss.Color("#cdd6f4"),
		TextDim: lipgloss.Color("#6c7086"),
	}

	// LightTheme suits bright terminals
	LightTheme = TUITheme{
		Name:        "light",
		Description: "Dark text on a light background",

		Background: lipgloss.Color("#fafafa"),
		Surface:    lipgloss.Color("#eeeeee"),
		Border:     lipgloss.Color("#bdbdbd"),

		User:      lipgloss.Color("#1565c0"),
		Assistant: lipgloss.Color("#2e7d32"),
		Error:     lipgloss.Color("#c62828"),

		Accent:  lipgloss.Color("#6a1b9a"),
		Text:    lipgloss.Color("#212121"),
		TextDim: lipgloss.Color("#757575"),
	}
)

var (
	themeMu         sync.RWMutex
	currentTUITheme = TokyoNightTheme
)

// GetTUITheme returns the active TUI theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates the theme called name and reports whether it exists
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName looks a theme up by name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range AvailableTUIThemes() {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes lists the built-in themes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{TokyoNightTheme, CatppuccinMochaTheme, LightTheme}
}

// TUIThemeNames lists the built-in theme names
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
