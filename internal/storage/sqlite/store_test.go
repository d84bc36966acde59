package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore(filepath.Join(t.TempDir(), "fleetcal.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func draft(client string, day int) models.ServiceRecord {
	return models.ServiceRecord{
		ClientName:  client,
		ServiceName: "Traslado",
		Units: []models.UnitAssignment{
			{VehicleID: "BUS-12", Drivers: []string{"Ana", "", "Luis"}},
		},
		Origin:        "Madrid",
		Destination:   "Toledo",
		ScheduledTime: "08:30",
		Year:          2026,
		Month:         3,
		Day:           day,
	}
}

func TestLoad_Uninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("Expected error loading uninitialized store")
	}
}

func TestLoad_AfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetcal.db")

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	defer reopened.Close()

	current, latest, err := reopened.SchemaStatus()
	if err != nil {
		t.Fatalf("SchemaStatus failed: %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("Expected schema at latest version, got current=%d latest=%d", current, latest)
	}
}

func TestNotLoaded(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "fleetcal.db"))
	ctx := context.Background()

	if _, err := store.SelectAll(ctx); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("SelectAll error = %v, want ErrNotLoaded", err)
	}
	if _, err := store.Insert(ctx, draft("Acme", 1)); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("Insert error = %v, want ErrNotLoaded", err)
	}
	if err := store.DeleteByID(ctx, "x"); !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("DeleteByID error = %v, want ErrNotLoaded", err)
	}
}

func TestInsertAndSelectAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Insert(ctx, draft("Acme", 5))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("Expected generated id")
	}
	if len(first.Units) != 1 || first.Units[0].VehicleID != "BUS-12" {
		t.Errorf("Units not round-tripped: %+v", first.Units)
	}
	if len(first.Units[0].Drivers) != 3 {
		t.Errorf("Expected driver slots preserved, got %v", first.Units[0].Drivers)
	}

	second, err := store.Insert(ctx, draft("Beta", 2))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	records, err := store.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != first.ID || records[1].ID != second.ID {
		t.Errorf("Expected insertion order, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestInsert_NilUnits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := draft("Acme", 1)
	r.Units = nil

	saved, err := store.Insert(ctx, r)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if saved.Units == nil || len(saved.Units) != 0 {
		t.Errorf("Expected empty units, got %#v", saved.Units)
	}
}

func TestUpdateByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Insert(ctx, draft("Acme", 5))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	saved.Day = 9
	saved.Completed = true
	saved.Notes = "recoger en hotel"

	updated, err := store.UpdateByID(ctx, saved.ID, saved)
	if err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if updated.Day != 9 || !updated.Completed || updated.Notes != "recoger en hotel" {
		t.Errorf("Update not applied: %+v", updated)
	}

	if _, err := store.UpdateByID(ctx, "missing", saved); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateByID error = %v, want ErrNotFound", err)
	}
}

func TestSetCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Insert(ctx, draft("Acme", 5))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// A full update from another session lands first.
	saved.ClientName = "Acme Renamed"
	saved.Notes = "recoger en hotel"
	if _, err := store.UpdateByID(ctx, saved.ID, saved); err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}

	completed, err := store.SetCompleted(ctx, saved.ID, true)
	if err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if !completed.Completed {
		t.Error("Expected completed flag to be set")
	}
	if completed.ClientName != "Acme Renamed" || completed.Notes != "recoger en hotel" {
		t.Errorf("SetCompleted touched other columns: %+v", completed)
	}
	if len(completed.Units) != 1 || completed.Units[0].VehicleID != "BUS-12" {
		t.Errorf("Units changed: %+v", completed.Units)
	}

	if _, err := store.SetCompleted(ctx, "missing", true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetCompleted error = %v, want ErrNotFound", err)
	}
}

func TestDeleteByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Insert(ctx, draft("Acme", 5))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.DeleteByID(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if err := store.DeleteByID(ctx, saved.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Second DeleteByID error = %v, want ErrNotFound", err)
	}

	records, err := store.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestSubscribeToChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var calls atomic.Int32
	sub, err := store.SubscribeToChanges(func() {
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("SubscribeToChanges failed: %v", err)
	}

	if _, err := store.Insert(ctx, draft("Acme", 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if calls.Load() < 1 {
		t.Error("Expected handler to be called after insert")
	}

	if err := store.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if err := store.Unsubscribe(sub); err != nil {
		t.Errorf("Second Unsubscribe should be a no-op, got %v", err)
	}
	if store.hub.Len() != 0 {
		t.Errorf("Expected no handlers, got %d", store.hub.Len())
	}
}
