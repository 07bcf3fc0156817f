package memory

import (
	"context"
	"time"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

var _ repository.IntentRepository = (*IntentRepo)(nil)

// IntentRepo stores payment intents at their derived addresses.
type IntentRepo struct {
	store *Store
}

func NewIntentRepo(store *Store) *IntentRepo {
	return &IntentRepo{store: store}
}

func (r *IntentRepo) Create(ctx context.Context, tx repository.Tx, intent *model.PaymentIntent) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.IntentAddress(intent.ID)
		if _, ok := a.get(addr); ok {
			return domain.ErrIntentAlreadyExists
		}
		cp := *intent
		a.put(addr, &cp)
		return nil
	})
}

func (r *IntentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentIntent, error) {
	var out *model.PaymentIntent
	err := r.store.access(tx, func(a accessor) error {
		v, ok := a.get(storage.IntentAddress(id))
		if !ok {
			return domain.ErrIntentNotFound
		}
		cp := *v.(*model.PaymentIntent)
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IntentRepo) Update(ctx context.Context, tx repository.Tx, intent *model.PaymentIntent) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.IntentAddress(intent.ID)
		if _, ok := a.get(addr); !ok {
			return domain.ErrIntentNotFound
		}
		cp := *intent
		a.put(addr, &cp)
		return nil
	})
}

func (r *IntentRepo) ListDueExpiry(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.PaymentIntent, error) {
	var out []*model.PaymentIntent
	err := r.store.access(tx, func(a accessor) error {
		a.each(storage.NamespaceIntent+":", func(_ string, v any) {
			in := v.(*model.PaymentIntent)
			if in.Status == model.IntentStatusCreated && domain.Expired(in.ExpiresAt, now) {
				cp := *in
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
