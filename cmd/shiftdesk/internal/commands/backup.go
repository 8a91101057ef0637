package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/backup"
)

type BackupCmd struct {
	Output string `arg:"" help:"archive file to write" default:"shiftdesk-backup.json.zst"`
}

func (b *BackupCmd) Run(ctx context.Context, globals *Globals) error {
	blobs, closeStore, err := globals.Store.Open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := backup.WriteFile(ctx, b.Output, blobs, time.Now().UTC()); err != nil {
		return err
	}

	log.Info().Str("path", b.Output).Msg("Backup written")
	fmt.Fprintf(globals.out(), "Backup written to %s\n", b.Output)
	return nil
}

type RestoreCmd struct {
	Input string `arg:"" help:"archive file to restore" type:"existingfile"`
}

func (r *RestoreCmd) Run(ctx context.Context, globals *Globals) error {
	blobs, closeStore, err := globals.Store.Open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := backup.RestoreFile(ctx, r.Input, blobs); err != nil {
		return err
	}

	log.Info().Str("path", r.Input).Msg("Backup restored")
	fmt.Fprintf(globals.out(), "Restored %s\n", r.Input)
	return nil
}
