package app

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	started := time.Date(2024, 6, 15, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60))

	op := NewOperation("MoveImage", started)

	if op.Name != "MoveImage" {
		t.Errorf("Name = %q, want MoveImage", op.Name)
	}
	if !op.StartedAt.Equal(started) || op.StartedAt.Location() != time.UTC {
		t.Errorf("StartedAt = %v, want %v in UTC", op.StartedAt, started)
	}

	idPattern := regexp.MustCompile(`^20240615T123045Z-[0-9a-f]{8}$`)
	if !idPattern.MatchString(op.ID) {
		t.Errorf("ID = %q, want match for %s", op.ID, idPattern)
	}
}

func TestNewOperation_UniqueIDs(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		op := NewOperation("Serve", now)
		if seen[op.ID] {
			t.Fatalf("duplicate operation id %q", op.ID)
		}
		seen[op.ID] = true
	}
}
