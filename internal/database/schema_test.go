package database

import (
	"context"
	"strings"
	"testing"

	"folio/internal/config"
)

func TestStore_Schema(t *testing.T) {
	store, err := NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewStoreFromConfig() error = %v", err)
	}
	defer store.Close()

	schema, err := store.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}

	for _, table := range []string{"project", "project_image", "project_artifact", "worked_on", "collaboration_invite", "award"} {
		if !strings.Contains(schema, "CREATE TABLE "+table+" (") {
			t.Errorf("schema missing table %s", table)
		}
	}
	if strings.Contains(schema, "schema_migrations") {
		t.Error("schema includes the migration bookkeeping table")
	}
	lastTable := strings.LastIndex(schema, "CREATE TABLE")
	if firstIndex := strings.Index(schema, "CREATE INDEX"); firstIndex < 0 || firstIndex < lastTable {
		t.Errorf("indexes should follow tables (first index at %d, last table at %d)", firstIndex, lastTable)
	}
}
