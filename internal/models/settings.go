package models

// ThemeMode selects the visual theme.
type ThemeMode string

const (
	ThemeModeNormal    ThemeMode = "normal"
	ThemeModeChristmas ThemeMode = "christmas"
)

// Settings are application preferences persisted next to the entity
// collections, each under its own key.
type Settings struct {
	ThemeMode        ThemeMode `json:"themeMode"`
	ChristmasEnabled bool      `json:"christmasEnabled"`
	DarkMode         bool      `json:"darkMode"`
	APIKey           string    `json:"apiKey,omitempty"`
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{ThemeMode: ThemeModeNormal}
}

// Normalize forces the christmas theme back to normal when the christmas
// theme is globally disabled. It returns true when the mode was changed.
func (s *Settings) Normalize() bool {
	if s.ThemeMode != ThemeModeNormal && s.ThemeMode != ThemeModeChristmas {
		s.ThemeMode = ThemeModeNormal
		return true
	}
	if !s.ChristmasEnabled && s.ThemeMode == ThemeModeChristmas {
		s.ThemeMode = ThemeModeNormal
		return true
	}
	return false
}
