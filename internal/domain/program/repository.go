package program

import "context"

// Repository loads degree programs from persistent storage.
type Repository interface {
	// GetByID returns a program with its parsed requirement tree.
	// Returns shared.ErrProgramNotFound when absent.
	GetByID(ctx context.Context, id string) (*Program, error)

	// GetByIDs returns the programs for the given ids, preserving input
	// order. Missing ids are skipped, not errors.
	GetByIDs(ctx context.Context, ids []string) ([]*Program, error)
}
