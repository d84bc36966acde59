package main

import (
	"github.com/alecthomas/kong"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/cli/services"
	"github.com/julianstephens/fleetcal/internal/cli/settings"
	"github.com/julianstephens/fleetcal/internal/cli/system"
	"github.com/julianstephens/fleetcal/internal/config"
	"github.com/julianstephens/fleetcal/internal/constants"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"SQLite file path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use environment variables, .pgpass, or OS keyring instead." type:"string"`
	ConfigDir string `help:"Directory holding config.yaml, logs and the default database." default:"${config_dir}"`
	Debug     bool   `help:"Enable debug logging to stderr."`
	Year      int    `help:"Calendar year to show (defaults to the current year)."`
	KeyStdin  bool   `help:"Read the access key from the first line of stdin." name:"key-stdin"`

	Init     system.InitCmd       `cmd:"" help:"Initialize fleetcal storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive calendar." default:"1"`
	Watch    system.WatchCmd      `cmd:"" help:"Follow changes made by other sessions."`
	Calendar cli.CalendarCmd      `cmd:"" help:"List the days of a month with service counts."`
	Export   cli.ExportCmd        `cmd:"" help:"Export services to XLSX or CSV."`
	Inspect  system.InspectCmd    `cmd:"" help:"Inspect storage for troubleshooting."`
	Settings settings.SettingsCmd `cmd:"" help:"View or update persistent settings."`
	Services struct {
		List     services.ListCmd     `cmd:"" help:"List services." default:"1"`
		Show     services.ShowCmd     `cmd:"" help:"Show a service."`
		Add      services.AddCmd      `cmd:"" help:"Add a service."`
		Edit     services.EditCmd     `cmd:"" help:"Edit a service."`
		Delete   services.DeleteCmd   `cmd:"" help:"Delete a service."`
		Complete services.CompleteCmd `cmd:"" help:"Mark a service as completed."`
	} `cmd:"" help:"Manage services."`
	Key struct {
		Set   system.KeySetCmd   `cmd:"" help:"Set the access key required for edits."`
		Clear system.KeyClearCmd `cmd:"" help:"Remove the access key, disabling edits."`
	} `cmd:"" help:"Manage the access key."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
}

// commands that open the store themselves
var selfLoading = map[string]bool{
	"init":     true,
	"migrate":  true,
	"doctor":   true,
	"keyring":  true,
	"key":      true,
	"settings": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Fleet service calendar with live sync across sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
		},
	)

	if CLI.Config != "" {
		if err := cli.CheckConnString(CLI.Config); err != nil {
			ferrors.Fatal(err)
		}
	}

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		ferrors.Fatal(err)
	}
	if err := cfg.ResolveDatabase(CLI.Config); err != nil {
		ferrors.Fatal(err)
	}
	cfg.Debug = cfg.Debug || CLI.Debug
	if CLI.Year != 0 {
		cfg.Year = CLI.Year
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		ferrors.Fatalf("failed to initialize logger: %v", err)
	}

	store := cli.OpenStore(cfg.Database)
	defer store.Close()

	appCtx := &cli.Context{
		Config:   cfg,
		Store:    store,
		Gate:     auth.NewGate(nil),
		KeyStdin: CLI.KeyStdin,
	}

	command := ""
	if ctx.Selected() != nil {
		command = ctx.Selected().Name
		if parent := ctx.Selected().Parent; parent != nil && parent.Name != constants.AppName {
			command = parent.Name
		}
	}
	logger.Debug("Starting", "command", ctx.Command(), "database", store.GetConfigPath())

	if !selfLoading[command] {
		if err := store.Load(); err != nil {
			ferrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		ferrors.Fatal(err)
	}
}
