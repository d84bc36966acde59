package system

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)

	ctx := &cli.Context{
		Store: store,
		Out:   io.Discard,
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, dbPath, cleanup
}

func testRecord(client string, day int) models.ServiceRecord {
	return models.ServiceRecord{
		ClientName:  client,
		ServiceName: "Excursión",
		Units: []models.UnitAssignment{
			{VehicleID: "M-07", Drivers: []string{"Carmen"}},
		},
		Origin:        "Sevilla",
		Destination:   "Cádiz",
		ScheduledTime: "09:00",
		Year:          2026,
		Month:         5,
		Day:           day,
	}
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("init command failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}

	if _, err := ctx.Store.Insert(context.Background(), testRecord("Colegio Norte", 4)); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("database file was not recreated")
	}

	records, err := ctx.Store.SelectAll(context.Background())
	if err != nil {
		t.Fatalf("failed to read records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty database after force init, got %d records", len(records))
	}
}

func TestInitCmd_ForceWithNonExistentDatabase(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("database should not exist yet")
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Errorf("force init on non-existent database failed: %v", err)
	}
}

func TestInitCmd_CopiesFromSource(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "source.db")
	src := sqlite.NewStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	first, err := src.Insert(context.Background(), testRecord("Colegio Norte", 4))
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if _, err := src.Insert(context.Background(), testRecord("Hotel Sol", 9)); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	src.Close()

	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	records, err := ctx.Store.SelectAll(context.Background())
	if err != nil {
		t.Fatalf("failed to read records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 copied records, got %d", len(records))
	}
	if records[0].ID != first.ID {
		t.Errorf("copied record id = %s, want %s", records[0].ID, first.ID)
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx); err == nil {
		t.Error("expected error when source and destination are the same")
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&MigrateCmd{}).Run(ctx); err == nil {
		t.Error("migrate should fail before init")
	}

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Errorf("migrate on up-to-date database failed: %v", err)
	}
}
