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

// SubscriptionUseCase manages direct subscription creation, cancellation,
// and payment processing against the append-only payment history.
type SubscriptionUseCase struct {
	registry repository.RegistryRepository
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewSubscriptionUseCase(
	registry repository.RegistryRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &SubscriptionUseCase{
		registry: registry,
		plans:    plans,
		subs:     subs,
		payments: payments,
		tm:       tm,
		log:      &l,
		now:      time.Now,
	}
}

// CreateDirect subscribes a user to a plan without a payment intent. The new
// subscription starts active with autopay off; the plan and registry
// counters move in the same transaction.
func (uc *SubscriptionUseCase) CreateDirect(ctx context.Context, user, planID, subscriptionID string) (*model.UserSubscription, error) {
	var sub *model.UserSubscription
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := requireUnpaused(ctx, tx, uc.registry)
		if err != nil {
			return err
		}
		plan, err := uc.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return domain.ErrPlanInactive
		}
		if !plan.HasCapacity() {
			return domain.ErrPlanFull
		}
		sub, err = model.NewUserSubscription(user, subscriptionID, plan, false, uc.now())
		if err != nil {
			return err
		}
		if err := uc.subs.Create(ctx, tx, sub); err != nil {
			return err
		}
		plan.CurrentSubscribers++
		if err := uc.plans.Update(ctx, tx, plan); err != nil {
			return err
		}
		reg.TotalSubscriptions++
		reg.UpdatedAt = uc.now()
		return uc.registry.Update(ctx, tx, reg)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionStarted("direct")
	uc.log.Info().Str("user", user).Str("plan_id", planID).Str("subscription_id", subscriptionID).Msg("subscription created")
	return sub, nil
}

// Cancel deactivates a subscription and releases its slot on the plan. Only
// the owner may cancel; a second cancel fails with ErrAlreadyCancelled.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, caller, user, subscriptionID string) (*model.UserSubscription, error) {
	if caller != user {
		return nil, domain.ErrUnauthorized
	}
	var sub *model.UserSubscription
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := requireUnpaused(ctx, tx, uc.registry); err != nil {
			return err
		}
		var err error
		sub, err = uc.subs.FindByID(ctx, tx, user, subscriptionID)
		if err != nil {
			return err
		}
		// The stored record must belong to the named user, whatever the
		// backend keyed it by.
		if sub.User != user {
			return domain.ErrSubscriptionNotFound
		}
		if err := sub.Cancel(); err != nil {
			return err
		}
		if err := uc.subs.Update(ctx, tx, sub); err != nil {
			return err
		}
		plan, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		// Counter floors at zero; a stale plan row must never go negative.
		if plan.CurrentSubscribers > 0 {
			plan.CurrentSubscribers--
		}
		return uc.plans.Update(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionCancelled()
	uc.log.Info().Str("user", user).Str("subscription_id", subscriptionID).Msg("subscription cancelled")
	return sub, nil
}

// ProcessPayment appends one payment record and advances the next due date
// by one billing period. Manual payments must come from the subscriber;
// autopay payments are issued by the scheduler on the subscriber's behalf.
func (uc *SubscriptionUseCase) ProcessPayment(ctx context.Context, caller, user, subscriptionID string, amount int64, method model.PaymentMethod) (*model.PaymentRecord, error) {
	if method == model.PaymentMethodManual && caller != user {
		return nil, domain.ErrUnauthorized
	}
	var rec *model.PaymentRecord
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := requireUnpaused(ctx, tx, uc.registry); err != nil {
			return err
		}
		sub, err := uc.subs.FindByID(ctx, tx, user, subscriptionID)
		if err != nil {
			return err
		}
		if sub.User != user {
			return domain.ErrSubscriptionNotFound
		}
		if !sub.IsActive {
			return domain.ErrSubscriptionInactive
		}
		plan, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		if amount != plan.PricePerPeriod {
			return domain.ErrAmountMismatch
		}
		rec = model.NewPaymentRecord(user, subscriptionID, amount, method, uc.now())
		if err := uc.payments.Append(ctx, tx, rec); err != nil {
			return err
		}
		sub.AdvanceDueDate(plan)
		return uc.subs.Update(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(method), string(model.PaymentStatusCompleted))
	uc.log.Info().Str("user", user).Str("subscription_id", subscriptionID).Int64("amount", amount).Str("method", string(method)).Msg("payment processed")
	return rec, nil
}

// ProcessDueAutoPay charges every active autopay subscription whose due date
// has passed. Invoked by the scheduler; failures on one subscription do not
// stop the rest.
func (uc *SubscriptionUseCase) ProcessDueAutoPay(ctx context.Context) (int, error) {
	due, err := uc.subs.ListAutoPayDue(ctx, nil, uc.now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sub := range due {
		plan, err := uc.plans.FindByID(ctx, nil, sub.PlanID)
		if err != nil {
			uc.log.Error().Err(err).Str("subscription_id", sub.SubscriptionID).Msg("autopay plan lookup failed")
			continue
		}
		if _, err := uc.ProcessPayment(ctx, sub.User, sub.User, sub.SubscriptionID, plan.PricePerPeriod, model.PaymentMethodAutoPay); err != nil {
			uc.log.Error().Err(err).Str("subscription_id", sub.SubscriptionID).Msg("autopay charge failed")
			continue
		}
		n++
	}
	return n, nil
}

// Get returns a subscription by owner and ID.
func (uc *SubscriptionUseCase) Get(ctx context.Context, user, subscriptionID string) (*model.UserSubscription, error) {
	return uc.subs.FindByID(ctx, nil, user, subscriptionID)
}

// ListByUser returns all subscriptions owned by a user.
func (uc *SubscriptionUseCase) ListByUser(ctx context.Context, user string) ([]*model.UserSubscription, error) {
	return uc.subs.ListByUser(ctx, nil, user)
}

// ListPayments returns the payer's payment history.
func (uc *SubscriptionUseCase) ListPayments(ctx context.Context, payer string) ([]*model.PaymentRecord, error) {
	return uc.payments.ListByPayer(ctx, nil, payer)
}
