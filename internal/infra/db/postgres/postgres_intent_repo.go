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
var _ repository.IntentRepository = (*IntentRepo)(nil)

type IntentRepo struct {
	pool *pgxpool.Pool
}

func NewIntentRepo(pool *pgxpool.Pool) *IntentRepo {
	return &IntentRepo{pool: pool}
}

const intentColumns = `id, plan_id, amount, expires_at, status, payer, created_at, updated_at`

func (r *IntentRepo) Create(ctx context.Context, tx repository.Tx, in *model.PaymentIntent) error {
	const q = `
INSERT INTO payment_intents (address, id, plan_id, amount, expires_at, status, payer, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, storage.IntentAddress(in.ID), in.ID, in.PlanID, in.Amount,
		in.ExpiresAt, string(in.Status), in.Payer, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIntentAlreadyExists
		}
		return fmt.Errorf("create intent: %w", err)
	}
	return nil
}

func (r *IntentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentIntent, error) {
	const q = `
SELECT ` + intentColumns + `
  FROM payment_intents
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanIntent(ex.QueryRow(ctx, q, storage.IntentAddress(id)))
}

func (r *IntentRepo) Update(ctx context.Context, tx repository.Tx, in *model.PaymentIntent) error {
	const q = `
UPDATE payment_intents
   SET status = $2, payer = $3, updated_at = $4
 WHERE address = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, q, storage.IntentAddress(in.ID), string(in.Status), in.Payer, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update intent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}

func (r *IntentRepo) ListDueExpiry(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.PaymentIntent, error) {
	const q = `
SELECT ` + intentColumns + `
  FROM payment_intents
 WHERE status = 'created' AND expires_at <= $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("list due intents: %w", err)
	}
	defer rows.Close()
	var out []*model.PaymentIntent
	for rows.Next() {
		in, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanIntent(row pgx.Row) (*model.PaymentIntent, error) {
	var (
		in     model.PaymentIntent
		status string
	)
	err := row.Scan(&in.ID, &in.PlanID, &in.Amount, &in.ExpiresAt, &status, &in.Payer, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIntentNotFound
		}
		return nil, fmt.Errorf("scan intent: %w", err)
	}
	in.Status = model.IntentStatus(status)
	return &in, nil
}
