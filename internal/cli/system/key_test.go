package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/keyring"
)

func stdinFile(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestKeySetCmd(t *testing.T) {
	gokeyring.MockInit()

	ctx := &cli.Context{KeyStdin: true, In: stdinFile(t, "flota-2026\n"), Out: &bytes.Buffer{}}
	if err := (&KeySetCmd{}).Run(ctx); err != nil {
		t.Fatalf("KeySetCmd.Run() error = %v", err)
	}

	hash, err := keyring.GetAccessKeyHash()
	if err != nil {
		t.Fatalf("hash not stored: %v", err)
	}
	ok, err := auth.VerifyKey("flota-2026", hash)
	if err != nil || !ok {
		t.Errorf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestKeySetCmd_Print(t *testing.T) {
	gokeyring.MockInit()

	out := &bytes.Buffer{}
	ctx := &cli.Context{KeyStdin: true, In: stdinFile(t, "flota-2026\n"), Out: out}
	if err := (&KeySetCmd{Print: true}).Run(ctx); err != nil {
		t.Fatalf("KeySetCmd.Run() error = %v", err)
	}

	if !strings.HasPrefix(out.String(), "$argon2id$") {
		t.Errorf("expected printed hash, got %q", out.String())
	}
	if _, err := keyring.GetAccessKeyHash(); err != keyring.ErrNotFound {
		t.Errorf("--print must not store the hash, got err=%v", err)
	}
}

func TestKeySetCmd_EmptyKey(t *testing.T) {
	gokeyring.MockInit()

	ctx := &cli.Context{KeyStdin: true, In: stdinFile(t, "\n"), Out: &bytes.Buffer{}}
	if err := (&KeySetCmd{}).Run(ctx); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestKeyClearCmd(t *testing.T) {
	gokeyring.MockInit()
	ctx := &cli.Context{Out: &bytes.Buffer{}}

	if err := (&KeyClearCmd{}).Run(ctx); err == nil {
		t.Error("expected error when no key is stored")
	}

	if err := keyring.SetAccessKeyHash("$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"); err != nil {
		t.Fatal(err)
	}
	if err := (&KeyClearCmd{}).Run(ctx); err != nil {
		t.Errorf("KeyClearCmd.Run() error = %v", err)
	}
	if _, err := keyring.GetAccessKeyHash(); err != keyring.ErrNotFound {
		t.Error("access key should be deleted")
	}
}
