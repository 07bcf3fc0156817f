package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

// Ensure interface compliance
var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subColumns = `user_id, subscription_id, plan_id, is_active, auto_pay_enabled, started_at, next_due_date, created_at`

func (r *SubscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (address, user_id, subscription_id, plan_id, is_active, auto_pay_enabled, started_at, next_due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, storage.SubscriptionAddress(s.User, s.SubscriptionID),
		s.User, s.SubscriptionID, s.PlanID, s.IsActive, s.AutoPayEnabled, s.StartedAt, s.NextDueDate, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSubscriptionAlreadyExists
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, user, subscriptionID string) (*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanSubscription(ex.QueryRow(ctx, q, storage.SubscriptionAddress(user, subscriptionID)))
}

func (r *SubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
UPDATE user_subscriptions
   SET is_active = $2, auto_pay_enabled = $3, next_due_date = $4
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, q, storage.SubscriptionAddress(s.User, s.SubscriptionID),
		s.IsActive, s.AutoPayEnabled, s.NextDueDate)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, user string) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE user_id = $1
 ORDER BY created_at;`
	return r.list(ctx, tx, q, user)
}

func (r *SubscriptionRepo) ListAutoPayDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE is_active = true AND auto_pay_enabled = true AND next_due_date <= $1
 ORDER BY next_due_date;`
	return r.list(ctx, tx, q, now)
}

func (r *SubscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.UserSubscription, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	var out []*model.UserSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*model.UserSubscription, error) {
	var s model.UserSubscription
	err := row.Scan(&s.User, &s.SubscriptionID, &s.PlanID, &s.IsActive, &s.AutoPayEnabled,
		&s.StartedAt, &s.NextDueDate, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return &s, nil
}
