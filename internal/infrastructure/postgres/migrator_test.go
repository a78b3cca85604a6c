package postgres

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestMigratorMissingSource(t *testing.T) {
	m := NewMigrator("postgres://localhost:1/db?sslmode=disable", t.TempDir()+"/missing", zerolog.Nop())

	if err := m.Up(); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
	if err := m.Down(); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
	if _, _, err := m.Version(); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}
