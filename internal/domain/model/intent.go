package model

import (
	"time"

	"subscription-ledger/internal/domain"
)

type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "created"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusExpired   IntentStatus = "expired"
	IntentStatusCancelled IntentStatus = "cancelled"
)

// PaymentIntent is a one-shot request to pay a plan's price before a
// deadline. It leaves the Created status exactly once and is immutable
// afterwards.
type PaymentIntent struct {
	ID        string
	PlanID    string
	Amount    int64
	ExpiresAt time.Time
	Status    IntentStatus
	Payer     string // set only on completion
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *PaymentIntent) IsZero() bool { return i == nil || i.ID == "" }

// NewPaymentIntent validates and constructs an intent in Created status.
// The amount must already equal the plan price; the caller checks that
// against the plan before constructing.
func NewPaymentIntent(id, planID string, amount int64, expiresAt, now time.Time) (*PaymentIntent, error) {
	if id == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := domain.ValidateExpiry(expiresAt, now); err != nil {
		return nil, err
	}
	return &PaymentIntent{
		ID:        id,
		PlanID:    planID,
		Amount:    amount,
		ExpiresAt: expiresAt,
		Status:    IntentStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Complete transitions Created -> Completed and records the payer.
func (i *PaymentIntent) Complete(payer string, now time.Time) error {
	if i.Status != IntentStatusCreated {
		return domain.ErrIntentNotCreated
	}
	if domain.Expired(i.ExpiresAt, now) {
		return domain.ErrIntentExpired
	}
	i.Status = IntentStatusCompleted
	i.Payer = payer
	i.UpdatedAt = now
	return nil
}

// Expire transitions Created -> Expired. Terminal statuses stay untouched.
func (i *PaymentIntent) Expire(now time.Time) error {
	if i.Status != IntentStatusCreated {
		return domain.ErrIntentNotCreated
	}
	i.Status = IntentStatusExpired
	i.UpdatedAt = now
	return nil
}

// Cancel transitions Created -> Cancelled.
func (i *PaymentIntent) Cancel(now time.Time) error {
	if i.Status != IntentStatusCreated {
		return domain.ErrIntentNotCreated
	}
	i.Status = IntentStatusCancelled
	i.UpdatedAt = now
	return nil
}
