package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupSQLiteTestDB(t *testing.T) (*sql.DB, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}

func migrationsFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		versions []int
		wantErr  string
	}{
		{
			name: "sorted by version",
			files: map[string]string{
				"002_units.sql": "SELECT 1;",
				"001_init.sql":  "SELECT 1;",
				"010_index.sql": "SELECT 1;",
				"README.md":     "ignored",
				"notes.txt":     "ignored",
			},
			versions: []int{1, 2, 10},
		},
		{
			name:    "bad filename",
			files:   map[string]string{"init.sql": "SELECT 1;"},
			wantErr: "invalid migration filename format",
		},
		{
			name:    "non numeric version",
			files:   map[string]string{"abc_init.sql": "SELECT 1;"},
			wantErr: "invalid version number",
		},
		{
			name:    "version zero",
			files:   map[string]string{"000_init.sql": "SELECT 1;"},
			wantErr: "version must be at least 1",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"001_init.sql":  "SELECT 1;",
				"001_other.sql": "SELECT 1;",
			},
			wantErr: "duplicate migration version 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, migrationsFS(tt.files), DriverSQLite)
			migrations, err := runner.ReadMigrationFiles()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadMigrationFiles() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMigrationFiles() error = %v", err)
			}
			if len(migrations) != len(tt.versions) {
				t.Fatalf("ReadMigrationFiles() returned %d migrations, want %d", len(migrations), len(tt.versions))
			}
			for i, v := range tt.versions {
				if migrations[i].Version != v {
					t.Errorf("migration %d version = %d, want %d", i, migrations[i].Version, v)
				}
			}
		})
	}
}

func TestApplyMigrations(t *testing.T) {
	db, cleanup := setupSQLiteTestDB(t)
	defer cleanup()

	fsys := migrationsFS(map[string]string{
		"001_init.sql":  "CREATE TABLE services (id TEXT PRIMARY KEY);",
		"002_units.sql": "ALTER TABLE services ADD COLUMN units TEXT NOT NULL DEFAULT '[]';",
	})
	runner := NewRunner(db, fsys, DriverSQLite)

	var logs []string
	count, err := runner.ApplyMigrations(func(msg string) {
		logs = append(logs, msg)
	})
	if err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if count != 2 {
		t.Errorf("ApplyMigrations() applied %d, want 2", count)
	}
	if len(logs) == 0 {
		t.Error("ApplyMigrations() did not report progress")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("GetCurrentVersion() = %d, want 2", version)
	}

	if _, err := db.Exec("INSERT INTO services (id, units) VALUES ('a', '[]')"); err != nil {
		t.Errorf("migrated schema rejected an insert: %v", err)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations() error = %v", err)
	}
	if count != 0 {
		t.Errorf("second ApplyMigrations() applied %d, want 0", count)
	}

	if err := runner.ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion() error = %v", err)
	}
}

func TestApplyMigrationsRollbackOnError(t *testing.T) {
	db, cleanup := setupSQLiteTestDB(t)
	defer cleanup()

	fsys := migrationsFS(map[string]string{
		"001_init.sql":   "CREATE TABLE services (id TEXT PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE broken (;",
	})
	runner := NewRunner(db, fsys, DriverSQLite)

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("ApplyMigrations() should fail on broken SQL")
	}
	if count != 1 {
		t.Errorf("ApplyMigrations() applied %d before failing, want 1", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("GetCurrentVersion() = %d after failed migration, want 1", version)
	}
}

func TestValidateVersion(t *testing.T) {
	db, cleanup := setupSQLiteTestDB(t)
	defer cleanup()

	fsys := migrationsFS(map[string]string{
		"001_init.sql": "CREATE TABLE services (id TEXT PRIMARY KEY);",
	})
	runner := NewRunner(db, fsys, DriverSQLite)

	err := runner.ValidateVersion()
	if err == nil || !strings.Contains(err.Error(), "migrate") {
		t.Errorf("ValidateVersion() on a fresh database = %v, want a migrate hint", err)
	}

	if err := runner.EnsureSchemaVersionTable(); err != nil {
		t.Fatalf("EnsureSchemaVersionTable() error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (5)"); err != nil {
		t.Fatalf("failed to seed version: %v", err)
	}

	err = runner.ValidateVersion()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("ValidateVersion() on a newer database = %v, want newer than supported", err)
	}

	current, latest, err := runner.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if current != 5 || latest != 1 {
		t.Errorf("Status() = %d, %d, want 5, 1", current, latest)
	}
}
