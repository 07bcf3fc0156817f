package repository

import (
	"context"

	"subscription-ledger/internal/domain/model"
)

// PaymentRepository is the append-only port for payment history. Records are
// addressed by (payer, subscriptionRef, timestamp) and never updated.
type PaymentRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.PaymentRecord) error
	ListByPayer(ctx context.Context, tx Tx, payer string) ([]*model.PaymentRecord, error)
	ListBySubscription(ctx context.Context, tx Tx, payer, subscriptionRef string) ([]*model.PaymentRecord, error)
}
