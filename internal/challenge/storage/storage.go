// Package storage defines persistence contracts for challenge state.
package storage

import (
	"context"
	"errors"

	"github.com/haverlock/undercroft/internal/challenge/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// SnapshotStore persists the single active challenge slot and the
// journal of resolved challenges.
type SnapshotStore interface {
	// SaveActive writes the active challenge snapshot, replacing any
	// previous one.
	SaveActive(ctx context.Context, snapshot domain.Snapshot) error
	// LoadActive returns the saved active snapshot, or ErrNotFound.
	LoadActive(ctx context.Context) (domain.Snapshot, error)
	// ClearActive removes the saved active snapshot. Clearing an empty
	// slot is not an error.
	ClearActive(ctx context.Context) error

	// AppendCompleted journals a resolved challenge.
	AppendCompleted(ctx context.Context, snapshot domain.Snapshot) error
	// RecentTypes returns the types of the most recently resolved
	// challenges, most recent first, capped at limit.
	RecentTypes(ctx context.Context, limit int) ([]domain.Type, error)
}
