package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/shiftdesk/internal/ssmparams"
)

type SettingsCmd struct {
	Show      SettingsShowCmd      `cmd:"" default:"1" help:"Show settings"`
	Theme     SettingsThemeCmd     `cmd:"" help:"Toggle between the normal and christmas themes"`
	Dark      SettingsDarkCmd      `cmd:"" help:"Toggle dark mode"`
	Christmas SettingsChristmasCmd `cmd:"" help:"Enable or disable the christmas theme for everyone"`
	APIKey    SettingsAPIKeyCmd    `cmd:"" name:"api-key" help:"Store the report API key"`
}

type SettingsShowCmd struct{}

func (s *SettingsShowCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	settings := app.Service.Store().Settings()
	out := globals.out()
	fmt.Fprintf(out, "Theme:             %s\n", settings.ThemeMode)
	fmt.Fprintf(out, "Christmas enabled: %t\n", settings.ChristmasEnabled)
	fmt.Fprintf(out, "Dark mode:         %t\n", settings.DarkMode)
	fmt.Fprintf(out, "API key:           %s\n", maskKey(settings.APIKey))
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

type SettingsThemeCmd struct{}

func (s *SettingsThemeCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.ToggleThemeMode(ctx)
	if err := check("toggle theme", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Theme: %s\n", app.Service.Store().Settings().ThemeMode)
	return nil
}

type SettingsDarkCmd struct{}

func (s *SettingsDarkCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.ToggleDarkMode(ctx)
	if err := check("toggle dark mode", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Dark mode: %t\n", app.Service.Store().Settings().DarkMode)
	return nil
}

type SettingsChristmasCmd struct {
	Enabled bool `arg:"" help:"true to enable, false to disable"`
}

func (s *SettingsChristmasCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.SetChristmasEnabled(ctx, s.Enabled)
	if err := check("set christmas theme", res, err); err != nil {
		return err
	}

	settings := app.Service.Store().Settings()
	fmt.Fprintf(globals.out(), "Christmas enabled: %t (theme %s)\n", settings.ChristmasEnabled, settings.ThemeMode)
	return nil
}

type SettingsAPIKeyCmd struct {
	Key      string `arg:"" optional:"" help:"API key value"`
	SSMParam string `help:"read the key from this SSM parameter" default:""`
	File     string `help:"read the key from this file" default:""`
}

func (s *SettingsAPIKeyCmd) Run(ctx context.Context, globals *Globals) error {
	key := s.Key
	if key == "" {
		cfg := ssmparams.Config{APIKeyPath: s.File, APIKeySSM: s.SSMParam}
		if !cfg.Enabled() {
			return fmt.Errorf("an API key, --ssm-param or --file is required")
		}
		var err error
		if key, err = ssmparams.LoadAPIKey(ctx, cfg); err != nil {
			return err
		}
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Service.SetAPIKey(ctx, key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Fprintln(globals.out(), "API key stored")
	return nil
}
