package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/keyring"
	"github.com/julianstephens/fleetcal/internal/logger"
)

// KeySetCmd hashes a new access key and stores the hash in the OS keyring.
type KeySetCmd struct {
	Print bool `help:"Print the hash instead of storing it (for FLEETCAL_ACCESS_KEY_HASH)."`
}

func (cmd *KeySetCmd) Run(ctx *cli.Context) error {
	var (
		key string
		err error
	)
	if ctx.KeyStdin {
		key, err = auth.ReadKeyLine(ctx.Stdin())
	} else {
		key, err = auth.ReadNewKey(ctx.Stdin(), os.Stderr)
	}
	if err != nil {
		return err
	}

	hash, err := auth.HashKey(key)
	if err != nil {
		return err
	}

	if cmd.Print {
		ctx.Println(hash)
		return nil
	}

	if err := keyring.SetAccessKeyHash(hash); err != nil {
		return fmt.Errorf("failed to store access key in keyring: %w", err)
	}
	logger.Info("Access key updated")
	ctx.Println("✓ Access key stored in OS keyring")
	return nil
}

// KeyClearCmd removes the access key hash, disabling edits.
type KeyClearCmd struct{}

func (cmd *KeyClearCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteAccessKeyHash(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no access key found in keyring")
		}
		return fmt.Errorf("failed to delete access key from keyring: %w", err)
	}
	logger.Info("Access key cleared")
	ctx.Println("✓ Access key deleted from OS keyring")
	return nil
}
