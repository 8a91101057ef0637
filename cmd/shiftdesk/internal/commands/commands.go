package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/service"
	"github.com/wolfeidau/shiftdesk/internal/state"
	"github.com/wolfeidau/shiftdesk/internal/store"
	awsstore "github.com/wolfeidau/shiftdesk/internal/store/aws"
	filestore "github.com/wolfeidau/shiftdesk/internal/store/file"
	memorystore "github.com/wolfeidau/shiftdesk/internal/store/memory"
	postgresstore "github.com/wolfeidau/shiftdesk/internal/store/postgres"
	sqlitestore "github.com/wolfeidau/shiftdesk/internal/store/sqlite"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
)

type Globals struct {
	Debug     bool
	Version   string
	Telemetry bool
	Store     StoreFlags
	Stdout    io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

type StoreFlags struct {
	StoreType string             `name:"store" help:"store type (memory, file, sqlite, postgres or dynamodb)" default:"file" env:"SHIFTDESK_STORE" enum:"memory,file,sqlite,postgres,dynamodb"`
	DataDir   string             `help:"directory for the file and sqlite stores (default ~/.shiftdesk)" default:"" env:"SHIFTDESK_DATA_DIR"`
	Postgres  PostgresStoreFlags `embed:"" prefix:"postgres-"`
	DynamoDB  DynamoDBStoreFlags `embed:"" prefix:"dynamodb-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns         int32         `help:"maximum number of connections in pool" default:"4"`
	MinConns         int32         `help:"minimum number of connections in pool" default:"1"`
	MaxConnLifetime  time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime  time.Duration `help:"maximum connection idle time" default:"30m"`
	StatementTimeout time.Duration `help:"statement timeout for blob reads and writes" default:"5s"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"true" env:"SHIFTDESK_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

type DynamoDBStoreFlags struct {
	Table    string `help:"DynamoDB blob table name" default:"dev_shiftdesk_blobs" env:"SHIFTDESK_DYNAMODB_TABLE"`
	Region   string `help:"AWS region" default:"us-east-1" env:"AWS_REGION"`
	Endpoint string `help:"AWS endpoint (for DynamoDB Local)" default:"" env:"AWS_ENDPOINT"`
}

// client builds a DynamoDB client for the configured region and endpoint.
func (s *DynamoDBStoreFlags) client(ctx context.Context) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(s.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	}), nil
}

func (s *StoreFlags) dataDir() (string, error) {
	if s.DataDir != "" {
		return s.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".shiftdesk"), nil
}

// Open returns the blob store selected by the flags and a func releasing it.
func (s *StoreFlags) Open(ctx context.Context) (store.BlobStore, func(), error) {
	noop := func() {}

	switch s.StoreType {
	case "memory":
		log.Debug().Msg("Using in-memory store, changes are discarded on exit")
		return memorystore.NewBlobStore(), noop, nil

	case "sqlite":
		dir, err := s.dataDir()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err := sqlitestore.Open(ctx, filepath.Join(dir, "shiftdesk.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, func() {
			if err := st.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close sqlite store")
			}
		}, nil

	case "postgres":
		if err := s.Postgres.Validate(); err != nil {
			return nil, nil, err
		}
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:       s.Postgres.ConnString,
			MaxConns:         s.Postgres.MaxConns,
			MinConns:         s.Postgres.MinConns,
			MaxConnLifetime:  s.Postgres.MaxConnLifetime,
			MaxConnIdleTime:  s.Postgres.MaxConnIdleTime,
			StatementTimeout: s.Postgres.StatementTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		// Run migrations if enabled
		if s.Postgres.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Debug().Msg("Database migrations completed")
		}
		return postgresstore.NewBlobStore(pool), pool.Close, nil

	case "dynamodb":
		client, err := s.DynamoDB.client(ctx)
		if err != nil {
			return nil, nil, err
		}
		return awsstore.NewBlobStore(client, s.DynamoDB.Table), noop, nil

	default:
		dir, err := s.dataDir()
		if err != nil {
			return nil, nil, err
		}
		st, err := filestore.NewBlobStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	}
}

// App is the loaded application state for one command invocation.
type App struct {
	Service *service.Service
	Blobs   store.BlobStore
	closers []func()
}

// Close releases the store and flushes telemetry.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openApp(ctx context.Context, globals *Globals) (*App, error) {
	app := &App{}

	if globals.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, "shiftdesk", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		} else {
			app.closers = append(app.closers, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			})
		}
	}

	blobs, closeStore, err := globals.Store.Open(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Blobs = blobs
	app.closers = append(app.closers, closeStore)

	st := state.New(blobs)
	if err := st.Load(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	gate := auth.NewGate(st)
	if _, _, err := gate.Restore(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	app.Service = service.New(st, gate)
	return app, nil
}

// ResultError is returned when an action was skipped by a precondition.
type ResultError struct {
	Action string
	Result service.Result
}

func (e *ResultError) Error() string {
	switch e.Result {
	case service.Unauthenticated:
		return fmt.Sprintf("%s: not logged in", e.Action)
	case service.Forbidden:
		return fmt.Sprintf("%s: your role does not allow this", e.Action)
	case service.NotFound:
		return fmt.Sprintf("%s: not found", e.Action)
	case service.Invalid:
		return fmt.Sprintf("%s: invalid input", e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Result)
}

// check turns a skipped Result into a ResultError.
func check(action string, res service.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if res != service.Ok {
		return &ResultError{Action: action, Result: res}
	}
	return nil
}
