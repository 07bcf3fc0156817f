package repository

import (
	"context"

	"subscription-ledger/internal/domain/model"
)

// PlanRepository is the port for plan persistence. Records are addressed by
// the plan ID; Create is an atomic check-and-insert on that address.
type PlanRepository interface {
	// Create fails with domain.ErrPlanAlreadyExists if the address is taken.
	Create(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
	// FindByID returns domain.ErrPlanNotFound for a vacant address.
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	Update(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
	ListAll(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}
