package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/storage/sqlite"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		if _, err := os.Stat(s.GetConfigPath()); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'fleetcal init' first")
		}
	}
	defer ctx.Store.Close()

	count, err := ctx.Store.Migrate(func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}

	return nil
}
