package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation identifies one CLI command or server run in the logs.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// NewOperation creates an operation with a fresh id. The id starts with the
// UTC start time so log lines sort by run.
func NewOperation(name string, now time.Time) *Operation {
	now = now.UTC()
	return &Operation{
		ID:        now.Format("20060102T150405Z") + "-" + uuid.NewString()[:8],
		Name:      name,
		StartedAt: now,
	}
}
