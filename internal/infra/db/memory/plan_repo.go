package memory

import (
	"context"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo stores plans at their derived addresses.
type PlanRepo struct {
	store *Store
}

func NewPlanRepo(store *Store) *PlanRepo {
	return &PlanRepo{store: store}
}

func (r *PlanRepo) Create(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.PlanAddress(plan.ID)
		if _, ok := a.get(addr); ok {
			return domain.ErrPlanAlreadyExists
		}
		cp := *plan
		a.put(addr, &cp)
		return nil
	})
}

func (r *PlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	var out *model.SubscriptionPlan
	err := r.store.access(tx, func(a accessor) error {
		v, ok := a.get(storage.PlanAddress(id))
		if !ok {
			return domain.ErrPlanNotFound
		}
		cp := *v.(*model.SubscriptionPlan)
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PlanRepo) Update(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	return r.store.access(tx, func(a accessor) error {
		addr := storage.PlanAddress(plan.ID)
		if _, ok := a.get(addr); !ok {
			return domain.ErrPlanNotFound
		}
		cp := *plan
		a.put(addr, &cp)
		return nil
	})
}

func (r *PlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	var out []*model.SubscriptionPlan
	err := r.store.access(tx, func(a accessor) error {
		a.each(storage.NamespacePlan+":", func(_ string, v any) {
			cp := *v.(*model.SubscriptionPlan)
			out = append(out, &cp)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
