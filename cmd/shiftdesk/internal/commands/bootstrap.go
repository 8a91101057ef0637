package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/bootstrap"
)

// BootstrapCmd creates the DynamoDB blob table used by --store=dynamodb.
type BootstrapCmd struct {
	Environment string `help:"environment name (local, dev, prod)" default:"dev" enum:"local,dev,prod"`
	Clean       bool   `help:"delete and recreate the table, discarding all data" default:"false"`
}

// Run executes the bootstrap command
func (cmd *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	log.Info().
		Str("environment", cmd.Environment).
		Str("region", globals.Store.DynamoDB.Region).
		Msg("Starting bootstrap")

	client, err := globals.Store.DynamoDB.client(ctx)
	if err != nil {
		return err
	}

	res, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		DynamoClient:   client,
		Environment:    cmd.Environment,
		CleanResources: cmd.Clean,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	log.Info().Str("table", res.BlobTable).Msg("Bootstrap completed")
	fmt.Fprintf(globals.out(), "Blob table ready: %s\nUse --store=dynamodb --dynamodb-table=%s\n", res.BlobTable, res.BlobTable)
	return nil
}
