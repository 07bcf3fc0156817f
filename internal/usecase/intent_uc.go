package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/infra/logging"
	"subscription-ledger/internal/infra/metrics"
)

// IntentUseCase drives the payment-intent state machine: Created is the only
// non-terminal status, and every transition away from it happens exactly
// once. Expired Created intents are settled lazily by whichever call path
// touches them first.
type IntentUseCase struct {
	registry repository.RegistryRepository
	plans    repository.PlanRepository
	intents  repository.IntentRepository
	subs     repository.SubscriptionRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewIntentUseCase(
	registry repository.RegistryRepository,
	plans repository.PlanRepository,
	intents repository.IntentRepository,
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *IntentUseCase {
	l := logger.With().Str("component", "IntentUC").Logger()
	return &IntentUseCase{
		registry: registry,
		plans:    plans,
		intents:  intents,
		subs:     subs,
		tm:       tm,
		log:      &l,
		now:      time.Now,
	}
}

// Create issues a one-shot intent to pay planID's current price. The amount
// must match the plan price exactly; no partial or overpayment is accepted.
func (uc *IntentUseCase) Create(ctx context.Context, intentID, planID string, amount int64, expiresAt time.Time) (*model.PaymentIntent, error) {
	var intent *model.PaymentIntent
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := requireUnpaused(ctx, tx, uc.registry); err != nil {
			return err
		}
		plan, err := uc.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return domain.ErrPlanInactive
		}
		if err := domain.ValidateExactAmount(amount, plan.PricePerPeriod); err != nil {
			return err
		}
		intent, err = model.NewPaymentIntent(intentID, planID, amount, expiresAt, uc.now())
		if err != nil {
			return err
		}
		return uc.intents.Create(ctx, tx, intent)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncIntent(string(model.IntentStatusCreated))
	uc.log.Info().Str("intent_id", intent.ID).Str("plan_id", planID).Time("expires_at", expiresAt).Msg("intent created")
	return intent, nil
}

// FulfillAndSubscribe is the subscribe-and-pay path: it completes the intent,
// creates an autopay subscription, and bumps the plan and registry counters
// in one all-or-nothing transaction. A full plan rolls everything back.
//
// Touching an expired Created intent persists the Expired status first and
// then fails with ErrIntentExpired; that write commits even though the call
// fails.
func (uc *IntentUseCase) FulfillAndSubscribe(ctx context.Context, user, intentID, subscriptionID string) (*model.PaymentIntent, *model.UserSubscription, error) {
	defer logging.TraceDuration(uc.log, "IntentUC.FulfillAndSubscribe")()
	var (
		intent  *model.PaymentIntent
		sub     *model.UserSubscription
		lateErr error
	)
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := requireUnpaused(ctx, tx, uc.registry)
		if err != nil {
			return err
		}
		intent, err = uc.intents.FindByID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		if intent.Status != model.IntentStatusCreated {
			return domain.ErrIntentNotCreated
		}
		now := uc.now()
		if domain.Expired(intent.ExpiresAt, now) {
			// Settle the status in this transaction and surface the error
			// after commit, so the expiry sticks.
			if err := intent.Expire(now); err != nil {
				return err
			}
			if err := uc.intents.Update(ctx, tx, intent); err != nil {
				return err
			}
			lateErr = domain.ErrIntentExpired
			return nil
		}
		plan, err := uc.plans.FindByID(ctx, tx, intent.PlanID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return domain.ErrPlanInactive
		}
		if !plan.HasCapacity() {
			return domain.ErrPlanFull
		}
		if err := intent.Complete(user, now); err != nil {
			return err
		}
		if err := uc.intents.Update(ctx, tx, intent); err != nil {
			return err
		}
		sub, err = model.NewUserSubscription(user, subscriptionID, plan, true, now)
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
		reg.UpdatedAt = now
		return uc.registry.Update(ctx, tx, reg)
	})
	if err != nil {
		return nil, nil, err
	}
	if lateErr != nil {
		metrics.IncIntent(string(model.IntentStatusExpired))
		return nil, nil, lateErr
	}
	metrics.IncIntent(string(model.IntentStatusCompleted))
	metrics.IncSubscriptionStarted("intent")
	uc.log.Info().Str("intent_id", intentID).Str("user", user).Str("subscription_id", subscriptionID).Msg("intent fulfilled")
	return intent, sub, nil
}

// Cancel voids a Created intent. Only the registry authority may cancel.
func (uc *IntentUseCase) Cancel(ctx context.Context, caller, intentID string) (*model.PaymentIntent, error) {
	var intent *model.PaymentIntent
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := requireUnpaused(ctx, tx, uc.registry)
		if err != nil {
			return err
		}
		if caller != reg.Authority {
			return domain.ErrUnauthorized
		}
		intent, err = uc.intents.FindByID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		if err := intent.Cancel(uc.now()); err != nil {
			return err
		}
		return uc.intents.Update(ctx, tx, intent)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncIntent(string(model.IntentStatusCancelled))
	return intent, nil
}

// Get returns an intent, lazily settling the Expired status when a Created
// intent's deadline has passed.
func (uc *IntentUseCase) Get(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	var intent *model.PaymentIntent
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		intent, err = uc.intents.FindByID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		now := uc.now()
		if intent.Status == model.IntentStatusCreated && domain.Expired(intent.ExpiresAt, now) {
			if err := intent.Expire(now); err != nil {
				return err
			}
			if err := uc.intents.Update(ctx, tx, intent); err != nil {
				return err
			}
			metrics.IncIntent(string(model.IntentStatusExpired))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// ExpireDue settles every Created intent whose deadline has passed. Invoked
// by the background sweeper; returns the number of intents expired.
func (uc *IntentUseCase) ExpireDue(ctx context.Context) (int, error) {
	n := 0
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		due, err := uc.intents.ListDueExpiry(ctx, tx, uc.now())
		if err != nil {
			return err
		}
		for _, intent := range due {
			if err := intent.Expire(uc.now()); err != nil {
				return err
			}
			if err := uc.intents.Update(ctx, tx, intent); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		metrics.IncIntent(string(model.IntentStatusExpired))
	}
	return n, nil
}
