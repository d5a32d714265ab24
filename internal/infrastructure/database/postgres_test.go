package database

import (
	"strings"
	"testing"
)

func TestMigrationSource(t *testing.T) {
	found, err := MigrationSource().FindMigrations()
	if err != nil {
		t.Fatalf("FindMigrations: %v", err)
	}
	if len(found) == 0 {
		t.Fatal("expected embedded migrations")
	}

	first := found[0]
	if first.Id != "0001_create_render_runs.sql" {
		t.Errorf("first migration = %q", first.Id)
	}
	if len(first.Up) == 0 || !strings.Contains(first.Up[0], "render_runs") {
		t.Errorf("unexpected up statements: %v", first.Up)
	}
	if len(first.Down) == 0 {
		t.Error("expected a down migration")
	}
}
