package service

import (
	"context"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/models"
)

// ToggleThemeMode switches between the normal and christmas themes. While
// the christmas theme is disabled a normal theme stays normal.
func (s *Service) ToggleThemeMode(ctx context.Context) (Result, error) {
	if _, res := s.authorize(ctx, "toggle_theme_mode", auth.PermPreferencesToggle); res != Ok {
		return res, nil
	}

	settings := s.store.Settings()
	if !settings.ChristmasEnabled && settings.ThemeMode == models.ThemeModeNormal {
		return Ok, nil
	}

	next := models.ThemeModeChristmas
	if settings.ThemeMode == models.ThemeModeChristmas {
		next = models.ThemeModeNormal
	}
	return Ok, s.store.SetThemeMode(ctx, next)
}

// ToggleDarkMode flips dark mode.
func (s *Service) ToggleDarkMode(ctx context.Context) (Result, error) {
	if _, res := s.authorize(ctx, "toggle_dark_mode", auth.PermPreferencesToggle); res != Ok {
		return res, nil
	}
	return Ok, s.store.SetDarkMode(ctx, !s.store.Settings().DarkMode)
}

// SetChristmasEnabled turns the christmas theme on or off for everyone.
func (s *Service) SetChristmasEnabled(ctx context.Context, enabled bool) (Result, error) {
	if _, res := s.authorize(ctx, "set_christmas_enabled", auth.PermSettingsManage); res != Ok {
		return res, nil
	}
	return Ok, s.store.SetChristmasEnabled(ctx, enabled)
}

// SetAPIKey stores the report API key. It needs no session since the key is
// entered before login.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	return s.store.SetAPIKey(ctx, key)
}
