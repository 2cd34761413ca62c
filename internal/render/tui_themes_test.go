package render

import (
	"testing"

	"github.com/diogo/learnchat/internal/models"
)

func TestTUITheme_AllColorsDefined(t *testing.T) {
	for _, theme := range AvailableTUIThemes() {
		colors := map[string]string{
			"background": string(theme.Background),
			"surface":    string(theme.Surface),
			"border":     string(theme.Border),
			"user":       string(theme.User),
			"assistant":  string(theme.Assistant),
			"error":      string(theme.Error),
			"accent":     string(theme.Accent),
			"text":       string(theme.Text),
			"textDim":    string(theme.TextDim),
		}
		if theme.Name == "" || theme.Description == "" {
			t.Errorf("theme %+v lacks a name or description", theme)
		}
		for field, c := range colors {
			if c == "" {
				t.Errorf("theme %s has empty %s color", theme.Name, field)
			}
		}
	}
}

func TestTUITheme_RoleColor(t *testing.T) {
	theme := TokyoNightTheme

	tests := []struct {
		role models.Role
		want string
	}{
		{models.RoleUser, string(theme.User)},
		{models.RoleAssistant, string(theme.Assistant)},
		{models.RoleSystemError, string(theme.Error)},
		{models.Role("other"), string(theme.Text)},
	}

	for _, tt := range tests {
		if got := string(theme.RoleColor(tt.role)); got != tt.want {
			t.Errorf("RoleColor(%s) = %s, want %s", tt.role, got, tt.want)
		}
	}
}

func TestSetTUITheme(t *testing.T) {
	defer SetTUITheme("tokyonight")

	if !SetTUITheme("catppuccin") {
		t.Fatal("SetTUITheme(catppuccin) returned false")
	}
	if GetTUITheme().Name != "catppuccin" {
		t.Errorf("active theme = %s", GetTUITheme().Name)
	}

	if SetTUITheme("nonexistent") {
		t.Error("unknown theme should be rejected")
	}
	if GetTUITheme().Name != "catppuccin" {
		t.Error("failed SetTUITheme changed the active theme")
	}
}

func TestTUIThemeNames(t *testing.T) {
	names := TUIThemeNames()
	if len(names) != len(AvailableTUIThemes()) {
		t.Fatalf("got %d names", len(names))
	}
	for _, n := range names {
		if _, ok := GetTUIThemeByName(n); !ok {
			t.Errorf("theme %q not found by name", n)
		}
	}
}
