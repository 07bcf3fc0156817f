package memory

import (
	"context"
	"time"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

// SubscriptionRepo stores user subscriptions at (user, subscriptionID)
// addresses.
type SubscriptionRepo struct {
	store *Store
}

func NewSubscriptionRepo(store *Store) *SubscriptionRepo {
	return &SubscriptionRepo{store: store}
}

func (r *SubscriptionRepo) Create(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.SubscriptionAddress(sub.User, sub.SubscriptionID)
		if _, ok := a.get(addr); ok {
			return domain.ErrSubscriptionAlreadyExists
		}
		cp := *sub
		a.put(addr, &cp)
		return nil
	})
}

func (r *SubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, user, subscriptionID string) (*model.UserSubscription, error) {
	var out *model.UserSubscription
	err := r.store.access(tx, func(a accessor) error {
		v, ok := a.get(storage.SubscriptionAddress(user, subscriptionID))
		if !ok {
			return domain.ErrSubscriptionNotFound
		}
		cp := *v.(*model.UserSubscription)
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubscriptionRepo) Update(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.SubscriptionAddress(sub.User, sub.SubscriptionID)
		if _, ok := a.get(addr); !ok {
			return domain.ErrSubscriptionNotFound
		}
		cp := *sub
		a.put(addr, &cp)
		return nil
	})
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, user string) ([]*model.UserSubscription, error) {
	var out []*model.UserSubscription
	err := r.store.access(tx, func(a accessor) error {
		a.each(storage.Address(storage.NamespaceSubscription, user)+":", func(_ string, v any) {
			cp := *v.(*model.UserSubscription)
			out = append(out, &cp)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubscriptionRepo) ListAutoPayDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.UserSubscription, error) {
	var out []*model.UserSubscription
	err := r.store.access(tx, func(a accessor) error {
		a.each(storage.NamespaceSubscription+":", func(_ string, v any) {
			s := v.(*model.UserSubscription)
			if s.IsActive && s.AutoPayEnabled && !s.NextDueDate.After(now) {
				cp := *s
				out = append(out, &cp)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
