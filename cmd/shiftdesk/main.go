package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/cmd/shiftdesk/internal/commands"
	"github.com/wolfeidau/shiftdesk/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd     `cmd:"" help:"Log in"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Log out"`
		Whoami    commands.WhoamiCmd    `cmd:"" help:"Show the logged in user"`
		Orgs      commands.OrgsCmd      `cmd:"" help:"Manage organizations"`
		Users     commands.UsersCmd     `cmd:"" help:"Manage users"`
		Tasks     commands.TasksCmd     `cmd:"" help:"Manage tasks"`
		Templates commands.TemplatesCmd `cmd:"" help:"Manage task templates"`
		Export    commands.ExportCmd    `cmd:"" help:"Export tasks to CSV"`
		Report    commands.ReportCmd    `cmd:"" help:"Generate a shift handoff report"`
		Settings  commands.SettingsCmd  `cmd:"" help:"Show and change settings"`
		Backup    commands.BackupCmd    `cmd:"" help:"Write a compressed backup of all stored data"`
		Restore   commands.RestoreCmd   `cmd:"" help:"Restore a backup written by backup"`
		Bootstrap commands.BootstrapCmd `cmd:"" help:"Create the DynamoDB table for the dynamodb store"`

		Store     commands.StoreFlags `embed:""`
		Telemetry bool                `help:"Export OpenTelemetry traces and metrics." env:"SHIFTDESK_TELEMETRY"`
		Debug     bool                `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("shiftdesk"),
		kong.Description("Multi-tenant shift task management."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		Telemetry: cli.Telemetry,
		Store:     cli.Store,
		Stdout:    os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}
