package settings

import (
	"fmt"
	"time"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/config"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/logger"
	"github.com/julianstephens/fleetcal/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Database     *string `help:"Default SQLite database path."`
	Year         *int    `help:"Calendar year to open (0 follows the current year)."`
	Timezone     *string `help:"IANA timezone used to decide what 'today' is."`
	ResyncWindow *string `help:"Window for coalescing change events (e.g. 250ms)."`
	Notify       *bool   `help:"Relay desktop notifications in watch mode."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	dir := constants.DefaultConfigDir
	if ctx.Config != nil && ctx.Config.ConfigDir != "" {
		dir = ctx.Config.ConfigDir
	}
	// Reload so command-line overrides of this run are not persisted.
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		year := "current"
		if cfg.Year > 0 {
			year = fmt.Sprint(cfg.Year)
		}
		database := cfg.Database
		if database == "" {
			database = "(default)"
		}
		ctx.Println("Current Settings:")
		ctx.Printf("  Config Dir:    %s\n", cfg.ConfigDir)
		ctx.Printf("  Database:      %s\n", database)
		ctx.Printf("  Year:          %s\n", year)
		ctx.Printf("  Timezone:      %s\n", cfg.Timezone)
		ctx.Printf("  Resync Window: %s\n", cfg.ResyncWindow)
		ctx.Printf("  Notify:        %v\n", cfg.Notify)
		return nil
	}

	updated := false
	if c.Database != nil {
		if config.IsPostgresConnString(*c.Database) {
			return fmt.Errorf("PostgreSQL connection strings belong in the keyring: use 'fleetcal keyring set'")
		}
		cfg.Database = *c.Database
		updated = true
	}
	if c.Year != nil {
		if *c.Year < 0 || *c.Year > 9999 {
			return fmt.Errorf("invalid year: %d", *c.Year)
		}
		cfg.Year = *c.Year
		updated = true
	}
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone: %s", *c.Timezone)
		}
		cfg.Timezone = *c.Timezone
		updated = true
	}
	if c.ResyncWindow != nil {
		d, err := time.ParseDuration(*c.ResyncWindow)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid resync window: %s", *c.ResyncWindow)
		}
		cfg.ResyncWindow = d
		updated = true
	}
	if c.Notify != nil {
		cfg.Notify = *c.Notify
		updated = true
	}

	if updated {
		path, err := config.Save(cfg)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		logger.Info("Settings saved", "path", path)
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
