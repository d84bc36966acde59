package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/keyring"
	"github.com/julianstephens/fleetcal/internal/utils"
	"github.com/julianstephens/fleetcal/internal/validation"
)

type DoctorCmd struct{}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type doctor struct {
	ctx      *cli.Context
	hasError bool
}

func (d *doctor) check(name string, level checkLevel, err error) bool {
	switch {
	case err == nil:
		d.ctx.Printf("✓ %s: OK\n", name)
		return true
	case level == levelWarn:
		d.ctx.Printf("⚠ %s: WARNING\n", name)
		d.ctx.Printf("   %v\n", err)
	default:
		d.ctx.Printf("❌ %s: FAIL\n", name)
		d.ctx.Printf("   Error: %v\n", err)
		d.hasError = true
	}
	return false
}

func (d *doctor) skip(name, reason string) {
	d.ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	d := &doctor{ctx: ctx}

	dbReachable := d.check("Database reachable", levelFail, checkDBReachable(ctx))

	if dbReachable {
		d.check("Schema version", levelFail, checkSchemaVersion(ctx))
		d.check("Data validation", levelFail, checkValidation(ctx))
	} else {
		d.skip("Schema version", "database not reachable")
		d.skip("Data validation", "database not reachable")
	}

	d.check("OS keyring", levelWarn, checkKeyring())
	d.check("Access key", levelWarn, checkAccessKey())
	d.check("Clock/timezone", levelFail, checkClockTimezone(ctx))

	ctx.Println()
	if d.hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	c, cancel := context.WithTimeout(context.Background(), constants.StoreCallTimeout)
	defer cancel()

	records, err := ctx.Store.SelectAll(c)
	if err != nil {
		return fmt.Errorf("failed to read service records: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return fmt.Errorf("duplicate service ID found: %s", r.ID)
		}
		seen[r.ID] = true
	}

	result := validation.New().ValidateServices(records)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found\n%s", len(result.Conflicts), result.FormatReport())
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; use " + constants.EnvDBConnection + " and " + constants.EnvAccessKeyHash + " instead")
	}
	return nil
}

func checkAccessKey() error {
	hash, err := auth.DefaultSource()
	if err != nil {
		if errors.Is(err, auth.ErrNoAccessKey) {
			return errors.New("no access key configured, editing is disabled (set one with 'fleetcal key set')")
		}
		return err
	}
	if _, err := auth.VerifyKey("", hash); errors.Is(err, auth.ErrMalformedHash) {
		return fmt.Errorf("stored access key hash is malformed: %w", err)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	if ctx.Config != nil && !utils.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("invalid timezone %q in configuration", ctx.Config.Timezone)
	}
	return nil
}
