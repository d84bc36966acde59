package system

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/config"
	"github.com/julianstephens/fleetcal/internal/keyring"
	"github.com/julianstephens/fleetcal/internal/storage/postgres"
)

// KeyringSetCmd stores the PostgreSQL connection string in the OS keyring.
// Without an argument the string is read from a masked prompt so it stays out
// of the shell history.
type KeyringSetCmd struct {
	ConnectionString string `arg:"" optional:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	connStr := cmd.ConnectionString
	if connStr == "" {
		var err error
		connStr, err = auth.ReadKey("Connection string: ", ctx.Stdin(), os.Stderr)
		if err != nil {
			return fmt.Errorf("connection string: %w", err)
		}
	}

	if !config.IsPostgresConnString(connStr) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so embedded credentials are accepted here.
		ctx.Println("⚠️  Connection string contains embedded credentials; storing it in the encrypted OS keyring.")
		ctx.Println("   Use .pgpass or PG* environment variables to keep the password separate.")
	}

	if err := keyring.SetConnectionString(connStr); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Println("  Every fleetcal session on this machine now syncs through PostgreSQL")
	return nil
}

// KeyringGetCmd prints the stored connection string with its password masked.
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no connection string found in keyring. Use 'fleetcal keyring set' to store one")
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	ctx.Println(maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	err := keyring.DeleteConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no connection string found in keyring")
	}
	if err != nil {
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	ctx.Println("✓ Connection string deleted from OS keyring")
	ctx.Println("  fleetcal falls back to the local SQLite file")
	return nil
}

// KeyringStatusCmd reports keyring availability and which fleetcal secrets
// are stored.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	entries := []struct {
		label string
		get   func() (string, error)
	}{
		{"Connection string", keyring.GetConnectionString},
		{"Access key hash", keyring.GetAccessKeyHash},
	}
	for _, e := range entries {
		_, err := e.get()
		switch {
		case err == nil:
			ctx.Printf("✓ %s is stored\n", e.label)
		case errors.Is(err, keyring.ErrNotFound):
			ctx.Printf("ℹ %s is not stored\n", e.label)
		default:
			ctx.Printf("⚠ %s could not be read: %v\n", e.label, err)
		}
	}
	return nil
}

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if scheme, rest, ok := strings.Cut(connStr, "://"); ok {
		at := strings.LastIndex(rest, "@")
		if at < 0 {
			return connStr
		}
		user, _, hasPassword := strings.Cut(rest[:at], ":")
		if !hasPassword {
			return connStr
		}
		return scheme + "://" + user + ":****" + rest[at:]
	}

	fields := strings.Fields(connStr)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
