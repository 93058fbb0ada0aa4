package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

func TestPostgresDSN(t *testing.T) {
	cfg := Config{PostgresUser: "u", PostgresPassword: "p", PostgresHost: "h", PostgresPort: "5432", PostgresName: "medsim"}
	if got, want := cfg.postgresDSN(), "postgres://u:p@h:5432/medsim?sslmode=disable"; got != want {
		t.Fatalf("dsn: got=%q want=%q", got, want)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	log, _ := logger.New("test")
	gdb, err := Open(log, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"user", "thread", "message", "feedback"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("expected table %q", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := Open(log, Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
