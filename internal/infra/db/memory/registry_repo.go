package memory

import (
	"context"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

var _ repository.RegistryRepository = (*RegistryRepo)(nil)

// RegistryRepo stores the singleton registry at its fixed address.
type RegistryRepo struct {
	store *Store
}

func NewRegistryRepo(store *Store) *RegistryRepo {
	return &RegistryRepo{store: store}
}

func (r *RegistryRepo) Create(ctx context.Context, tx repository.Tx, reg *model.Registry) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.RegistryAddress()
		if _, ok := a.get(addr); ok {
			return domain.ErrAlreadyInitialized
		}
		cp := *reg
		a.put(addr, &cp)
		return nil
	})
}

func (r *RegistryRepo) Get(ctx context.Context, tx repository.Tx) (*model.Registry, error) {
	var out *model.Registry
	err := r.store.access(tx, func(a accessor) error {
		v, ok := a.get(storage.RegistryAddress())
		if !ok {
			return domain.ErrRegistryNotFound
		}
		cp := *v.(*model.Registry)
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RegistryRepo) Update(ctx context.Context, tx repository.Tx, reg *model.Registry) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.RegistryAddress()
		if _, ok := a.get(addr); !ok {
			return domain.ErrRegistryNotFound
		}
		cp := *reg
		a.put(addr, &cp)
		return nil
	})
}
