package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

// Ensure interface compliance
var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo is the append-only payment history table. Rows are never
// updated or deleted.
type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, payer, subscription_ref, amount, status, method, ts`

func (r *PaymentRepo) Append(ctx context.Context, tx repository.Tx, rec *model.PaymentRecord) error {
	const q = `
INSERT INTO payment_records (address, id, payer, subscription_ref, amount, status, method, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	addr := storage.PaymentAddress(rec.Payer, rec.SubscriptionRef,
		strconv.FormatInt(rec.Timestamp.UnixNano(), 10))
	_, err = ex.Exec(ctx, q, addr, rec.ID, rec.Payer, rec.SubscriptionRef,
		rec.Amount, string(rec.Status), string(rec.Method), rec.Timestamp)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidArgument
		}
		return fmt.Errorf("append payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) ListByPayer(ctx context.Context, tx repository.Tx, payer string) ([]*model.PaymentRecord, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM payment_records
 WHERE payer = $1
 ORDER BY ts;`
	return r.list(ctx, tx, q, payer)
}

func (r *PaymentRepo) ListBySubscription(ctx context.Context, tx repository.Tx, payer, subscriptionRef string) ([]*model.PaymentRecord, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM payment_records
 WHERE payer = $1 AND subscription_ref = $2
 ORDER BY ts;`
	return r.list(ctx, tx, q, payer, subscriptionRef)
}

func (r *PaymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.PaymentRecord, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []*model.PaymentRecord
	for rows.Next() {
		var (
			rec            model.PaymentRecord
			status, method string
		)
		if err := rows.Scan(&rec.ID, &rec.Payer, &rec.SubscriptionRef, &rec.Amount,
			&status, &method, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		rec.Status = model.PaymentStatus(status)
		rec.Method = model.PaymentMethod(method)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
