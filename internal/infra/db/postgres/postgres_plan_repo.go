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
var _ repository.PlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

const planColumns = `id, name, description, price_per_period, period_seconds, max_subscribers, current_subscribers, is_active, authority, created_at`

func (r *PlanRepo) Create(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (address, id, name, description, price_per_period, period_seconds, max_subscribers, current_subscribers, is_active, authority, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, storage.PlanAddress(p.ID), p.ID, p.Name, p.Description,
		p.PricePerPeriod, p.PeriodSeconds, int64(p.MaxSubscribers), int64(p.CurrentSubscribers),
		p.IsActive, p.Authority, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPlanAlreadyExists
		}
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM subscription_plans
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPlan(ex.QueryRow(ctx, q, storage.PlanAddress(id)))
}

func (r *PlanRepo) Update(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
UPDATE subscription_plans
   SET name = $2, description = $3, price_per_period = $4, period_seconds = $5,
       max_subscribers = $6, current_subscribers = $7, is_active = $8
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, q, storage.PlanAddress(p.ID), p.Name, p.Description,
		p.PricePerPeriod, p.PeriodSeconds, int64(p.MaxSubscribers), int64(p.CurrentSubscribers), p.IsActive)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM subscription_plans
 ORDER BY created_at;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var out []*model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	var (
		p            model.SubscriptionPlan
		maxSubs, cur int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PricePerPeriod, &p.PeriodSeconds,
		&maxSubs, &cur, &p.IsActive, &p.Authority, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	p.MaxSubscribers = uint32(maxSubs)
	p.CurrentSubscribers = uint32(cur)
	return &p, nil
}
