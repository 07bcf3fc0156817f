package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

// Ensure interface compliance
var _ repository.RegistryRepository = (*RegistryRepo)(nil)

// RegistryRepo persists the singleton registry row, keyed by its fixed
// deterministic address.
type RegistryRepo struct {
	pool *pgxpool.Pool
}

func NewRegistryRepo(pool *pgxpool.Pool) *RegistryRepo {
	return &RegistryRepo{pool: pool}
}

func (r *RegistryRepo) Create(ctx context.Context, tx repository.Tx, reg *model.Registry) error {
	const q = `
INSERT INTO registry (address, authority, total_plans, total_subscriptions, is_paused, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, storage.RegistryAddress(), reg.Authority,
		int64(reg.TotalPlans), int64(reg.TotalSubscriptions), reg.IsPaused, reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInitialized
		}
		return fmt.Errorf("create registry: %w", err)
	}
	return nil
}

func (r *RegistryRepo) Get(ctx context.Context, tx repository.Tx) (*model.Registry, error) {
	const q = `
SELECT authority, total_plans, total_subscriptions, is_paused, created_at, updated_at
  FROM registry
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var (
		reg        model.Registry
		plans, sub int64
	)
	row := ex.QueryRow(ctx, q, storage.RegistryAddress())
	if err := row.Scan(&reg.Authority, &plans, &sub, &reg.IsPaused, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRegistryNotFound
		}
		return nil, fmt.Errorf("get registry: %w", err)
	}
	reg.TotalPlans = uint64(plans)
	reg.TotalSubscriptions = uint64(sub)
	return &reg, nil
}

func (r *RegistryRepo) Update(ctx context.Context, tx repository.Tx, reg *model.Registry) error {
	const q = `
UPDATE registry
   SET authority = $2, total_plans = $3, total_subscriptions = $4, is_paused = $5, updated_at = $6
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, q, storage.RegistryAddress(), reg.Authority,
		int64(reg.TotalPlans), int64(reg.TotalSubscriptions), reg.IsPaused, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update registry: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrRegistryNotFound
	}
	return nil
}
