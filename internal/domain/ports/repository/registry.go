package repository

import (
	"context"

	"subscription-ledger/internal/domain/model"
)

// RegistryRepository is the port for the singleton registry record.
type RegistryRepository interface {
	// Create stores the singleton; fails with domain.ErrAlreadyInitialized
	// if the registry address is already occupied.
	Create(ctx context.Context, tx Tx, r *model.Registry) error
	// Get returns the singleton or domain.ErrRegistryNotFound.
	Get(ctx context.Context, tx Tx) (*model.Registry, error)
	// Update overwrites the singleton's mutable fields.
	Update(ctx context.Context, tx Tx, r *model.Registry) error
}
