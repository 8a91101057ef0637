package bootstrap

import (
	"context"
	"fmt"
)

// Bootstrap creates all required infrastructure (the DynamoDB blob table).
// If CleanResources is true, deletes existing resources first to ensure clean state
// If CleanResources is false, creates resources only if they don't exist (preserves data)
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.DynamoClient == nil {
		return nil, fmt.Errorf("DynamoClient is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}

	table, err := CreateBlobTable(ctx, cfg.DynamoClient, BlobTableName(cfg.Environment), cfg.CleanResources)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB table: %w", err)
	}

	return &Resources{BlobTable: table}, nil
}

// Cleanup deletes all resources created by Bootstrap
func Cleanup(ctx context.Context, cfg Config, res *Resources) error {
	if err := deleteTableIfExists(ctx, cfg.DynamoClient, res.BlobTable); err != nil {
		return fmt.Errorf("failed to delete blob table: %w", err)
	}
	return nil
}
