package repository

import (
	"context"
	"time"

	"subscription-ledger/internal/domain/model"
)

// IntentRepository is the port for payment intents.
type IntentRepository interface {
	// Create fails with domain.ErrIntentAlreadyExists if the address is taken.
	Create(ctx context.Context, tx Tx, intent *model.PaymentIntent) error
	// FindByID returns domain.ErrIntentNotFound for a vacant address.
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentIntent, error)
	Update(ctx context.Context, tx Tx, intent *model.PaymentIntent) error
	// ListDueExpiry returns intents still in Created status whose deadline
	// has passed. Used by the background sweeper; lazy expiry on read does
	// not depend on it.
	ListDueExpiry(ctx context.Context, tx Tx, now time.Time) ([]*model.PaymentIntent, error)
}
