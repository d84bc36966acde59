package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/fleetcal/internal/models"
)

var (
	// ErrNotFound is returned when an update or delete affected no row.
	ErrNotFound = errors.New("service record not found")
	// ErrEmptyResult is returned when a write succeeded without returning the row.
	ErrEmptyResult = errors.New("store returned no row for the write")
	// ErrNotLoaded is returned when the store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// ChangeHandler is called once per change event. Events carry no row data;
// any call means "something changed".
type ChangeHandler func()

// RecordStore is the source of truth for service records.
type RecordStore interface {
	// SelectAll returns every record in insertion order.
	SelectAll(ctx context.Context) ([]models.ServiceRecord, error)
	// Insert persists a draft and returns the canonical row with its id.
	Insert(ctx context.Context, r models.ServiceRecord) (models.ServiceRecord, error)
	// UpdateByID replaces the record with the given id and returns the stored row.
	// It returns ErrNotFound when no row matched.
	UpdateByID(ctx context.Context, id string, r models.ServiceRecord) (models.ServiceRecord, error)
	// SetCompleted writes only the completed flag of the record and returns
	// the stored row. It returns ErrNotFound when no row matched.
	SetCompleted(ctx context.Context, id string, completed bool) (models.ServiceRecord, error)
	// DeleteByID removes the record. It returns ErrNotFound when no row matched.
	DeleteByID(ctx context.Context, id string) error

	SubscribeToChanges(handler ChangeHandler) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	RecordStore

	// SchemaStatus returns the applied and the latest known schema versions.
	SchemaStatus() (current, latest int, err error)
	// Migrate applies pending migrations and returns how many ran.
	Migrate(logFn func(string)) (int, error)

	// Utils
	GetConfigPath() string
}
