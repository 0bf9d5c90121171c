// ABOUTME: Shared store errors and value types for droneport persistence
// ABOUTME: Defines Timestamps embedded by every persisted entity

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when a name-unique entity collides with
// an existing row (drone names, category names, pilot names).
var ErrDuplicateName = errors.New("name already exists")

// Timestamps carries creation and modification times. Entities embed it
// by composition; the store stamps both on create and refreshes
// UpdatedAt on every write.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// touch stamps the timestamps for a new record.
func (ts *Timestamps) touch(now time.Time) {
	if ts.CreatedAt.IsZero() {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
}
