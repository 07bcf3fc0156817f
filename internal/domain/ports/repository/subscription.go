package repository

import (
	"context"
	"time"

	"subscription-ledger/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions, addressed by
// the (user, subscriptionID) pair.
type SubscriptionRepository interface {
	// Create fails with domain.ErrSubscriptionAlreadyExists if the address
	// is taken.
	Create(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	// FindByID returns domain.ErrSubscriptionNotFound for a vacant address.
	FindByID(ctx context.Context, tx Tx, user, subscriptionID string) (*model.UserSubscription, error)
	Update(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	ListByUser(ctx context.Context, tx Tx, user string) ([]*model.UserSubscription, error)
	// ListAutoPayDue returns active autopay subscriptions whose next due
	// date is at or before now. Used by the autopay worker.
	ListAutoPayDue(ctx context.Context, tx Tx, now time.Time) ([]*model.UserSubscription, error)
}
