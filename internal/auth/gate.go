package auth

import (
	"errors"
	"os"
	"sync"

	"github.com/julianstephens/fleetcal/internal/constants"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/keyring"
	"github.com/julianstephens/fleetcal/internal/logger"
)

var (
	// ErrNoAccessKey is returned when no access key hash is configured.
	ErrNoAccessKey = errors.New("no access key configured, run 'fleetcal key set'")
	// ErrInvalidKey is returned when the supplied key does not match.
	ErrInvalidKey = errors.New("invalid access key")
	// ErrLocked is returned by Require while the gate is locked.
	ErrLocked = errors.New("editing is locked, unlock with the access key")
)

// HashSource returns the encoded access key hash.
type HashSource func() (string, error)

// DefaultSource reads the hash from FLEETCAL_ACCESS_KEY_HASH, falling back to
// the OS keyring.
func DefaultSource() (string, error) {
	if hash := os.Getenv(constants.EnvAccessKeyHash); hash != "" {
		return hash, nil
	}
	hash, err := keyring.GetAccessKeyHash()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoAccessKey
	}
	return hash, err
}

// Gate decides whether the session may mutate records. It starts locked.
type Gate struct {
	mu         sync.RWMutex
	privileged bool
	source     HashSource
}

func NewGate(source HashSource) *Gate {
	if source == nil {
		source = DefaultSource
	}
	return &Gate{source: source}
}

// Unlock grants privilege when key matches the configured hash.
func (g *Gate) Unlock(key string) error {
	hash, err := g.source()
	if err != nil {
		return ferrors.E(ferrors.Unauthorized, "unlock", err)
	}

	ok, err := VerifyKey(key, hash)
	if err != nil {
		return ferrors.E(ferrors.Unauthorized, "unlock", err)
	}
	if !ok {
		logger.Warn("Rejected access key")
		return ferrors.E(ferrors.Unauthorized, "unlock", ErrInvalidKey)
	}

	g.mu.Lock()
	g.privileged = true
	g.mu.Unlock()

	logger.Info("Editing unlocked")
	return nil
}

func (g *Gate) Lock() {
	g.mu.Lock()
	g.privileged = false
	g.mu.Unlock()
}

func (g *Gate) IsPrivileged() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.privileged
}

// Require returns an Unauthorized error for op unless the gate is unlocked.
func (g *Gate) Require(op string) error {
	if g.IsPrivileged() {
		return nil
	}
	return ferrors.E(ferrors.Unauthorized, op, ErrLocked)
}
