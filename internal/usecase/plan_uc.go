package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/infra/metrics"
)

// PlanUseCase manages the plan lifecycle. Only the registry authority may
// create plans; updates require the plan's own stored authority.
type PlanUseCase struct {
	registry repository.RegistryRepository
	plans    repository.PlanRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewPlanUseCase(registry repository.RegistryRepository, plans repository.PlanRepository, tm repository.TransactionManager, logger *zerolog.Logger) *PlanUseCase {
	l := logger.With().Str("component", "PlanUC").Logger()
	return &PlanUseCase{registry: registry, plans: plans, tm: tm, log: &l, now: time.Now}
}

// CreateInput carries the caller-validated primitive arguments for Create.
type CreateInput struct {
	PlanID         string
	Name           string
	Description    string
	PricePerPeriod int64
	PeriodSeconds  int64
	MaxSubscribers uint32
}

// Create inserts a new plan at its derived address and bumps the registry
// plan counter in the same transaction.
func (uc *PlanUseCase) Create(ctx context.Context, caller string, in CreateInput) (*model.SubscriptionPlan, error) {
	var plan *model.SubscriptionPlan
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := requireUnpaused(ctx, tx, uc.registry)
		if err != nil {
			return err
		}
		if caller != reg.Authority {
			return domain.ErrUnauthorized
		}
		plan, err = model.NewSubscriptionPlan(in.PlanID, in.Name, in.Description,
			in.PricePerPeriod, in.PeriodSeconds, in.MaxSubscribers, reg.Authority, uc.now())
		if err != nil {
			return err
		}
		if err := uc.plans.Create(ctx, tx, plan); err != nil {
			return err
		}
		reg.TotalPlans++
		reg.UpdatedAt = uc.now()
		return uc.registry.Update(ctx, tx, reg)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPlanCreated()
	uc.log.Info().Str("plan_id", plan.ID).Int64("price", plan.PricePerPeriod).Msg("plan created")
	return plan, nil
}

// Update applies a partial patch; nil fields stay unchanged. Price changes
// do not touch already-issued intents or existing subscriptions.
func (uc *PlanUseCase) Update(ctx context.Context, caller, planID string, patch model.PlanPatch) (*model.SubscriptionPlan, error) {
	var plan *model.SubscriptionPlan
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := requireUnpaused(ctx, tx, uc.registry); err != nil {
			return err
		}
		var err error
		plan, err = uc.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if caller != plan.Authority {
			return domain.ErrUnauthorized
		}
		if err := plan.Apply(patch); err != nil {
			return err
		}
		return uc.plans.Update(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(ctx context.Context, planID string) (*model.SubscriptionPlan, error) {
	return uc.plans.FindByID(ctx, nil, planID)
}

// List returns all plans.
func (uc *PlanUseCase) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return uc.plans.ListAll(ctx, nil)
}
