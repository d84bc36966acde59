package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/config"
	"github.com/julianstephens/fleetcal/internal/storage"
	"github.com/julianstephens/fleetcal/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy service records from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized fleetcal storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying service records from: %s\n", c.Source)
		n, err := c.copyServices(ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("Copied %d service record(s).\n", n)
	}

	return nil
}

func (c *InitCmd) copyServices(ctx *cli.Context) (int, error) {
	if config.IsPostgresConnString(c.Source) {
		if valid, err := postgres.ValidateConnString(c.Source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return 0, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return 0, err
		}
	}

	source := cli.OpenStore(c.Source)
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	return copyRecords(context.Background(), source, ctx.Store)
}

// copyRecords inserts every record of src into dst, keeping ids.
func copyRecords(ctx context.Context, src, dst storage.RecordStore) (int, error) {
	records, err := src.SelectAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read source records: %w", err)
	}
	for i, r := range records {
		if _, err := dst.Insert(ctx, r); err != nil {
			return i, fmt.Errorf("failed to copy record %s: %w", r.ID, err)
		}
	}
	return len(records), nil
}
