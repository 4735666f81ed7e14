package store

import (
	"context"

	"github.com/maloquacious/soltool/internal/solution"
)

// State represents the condition of a stored solution file.
type State int

const (
	StateMissing       State = iota // File doesn't exist
	StateUninitialized              // File exists but has no solution schema
	StateIncompatible               // Item type snapshot doesn't match the registry
	StateReady                      // Schema present and item types match
)

func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateIncompatible:
		return "incompatible"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Counts reports how many rows or elements a save or load processed.
// The values are diagnostic only.
type Counts struct {
	ItemTypes int
	Items     int
}

// Store persists whole solution models to a file.
// A single store value must not be used for two operations on the same path at once.
type Store interface {
	// Save replaces the file at path with m. On failure the previous file,
	// if any, is left in place.
	Save(ctx context.Context, path string, m *solution.Model) (Counts, error)

	// Load validates the embedded item type snapshot and then reads the tree.
	// It returns no model when any step fails.
	Load(ctx context.Context, path string) (*solution.Model, Counts, error)
}
