package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/auth"
)

type LoginCmd struct {
	Username string `arg:"" help:"username"`
	Password string `help:"password" env:"SHIFTDESK_PASSWORD" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	ok, err := app.Service.Gate().Login(ctx, l.Username, l.Password)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if !ok {
		return auth.ErrInvalidCredentials
	}

	user, _ := app.Service.Gate().Current()
	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("Logged in")
	fmt.Fprintf(globals.out(), "Logged in as %s (%s)\n", user.FullName, user.Role)
	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Service.Gate().Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	fmt.Fprintln(globals.out(), "Logged out")
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	user, ok := app.Service.Gate().Current()
	if !ok {
		fmt.Fprintln(globals.out(), "Not logged in")
		return nil
	}

	out := globals.out()
	fmt.Fprintf(out, "User:         %s\n", user.Username)
	fmt.Fprintf(out, "Name:         %s\n", user.FullName)
	fmt.Fprintf(out, "Role:         %s\n", user.Role)
	fmt.Fprintf(out, "Organization: %s\n", user.OrganizationID)
	return nil
}
