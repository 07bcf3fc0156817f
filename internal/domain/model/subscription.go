package model

import (
	"time"

	"subscription-ledger/internal/domain"
)

// UserSubscription represents one user's subscription to a plan. The
// subscription ID is unique per user; the record is addressed by the
// (user, subscriptionID) pair.
type UserSubscription struct {
	User           string
	SubscriptionID string
	PlanID         string
	IsActive       bool
	AutoPayEnabled bool
	StartedAt      time.Time
	NextDueDate    time.Time
	CreatedAt      time.Time
}

func (s *UserSubscription) IsZero() bool { return s == nil || s.SubscriptionID == "" }

// NewUserSubscription creates an active subscription starting now, with the
// first due date one billing period out.
func NewUserSubscription(user, subscriptionID string, plan *SubscriptionPlan, autoPay bool, now time.Time) (*UserSubscription, error) {
	if user == "" || subscriptionID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &UserSubscription{
		User:           user,
		SubscriptionID: subscriptionID,
		PlanID:         plan.ID,
		IsActive:       true,
		AutoPayEnabled: autoPay,
		StartedAt:      now,
		NextDueDate:    now.Add(plan.Period()),
		CreatedAt:      now,
	}, nil
}

// Cancel deactivates the subscription and switches autopay off.
func (s *UserSubscription) Cancel() error {
	if !s.IsActive {
		return domain.ErrAlreadyCancelled
	}
	s.IsActive = false
	s.AutoPayEnabled = false
	return nil
}

// AdvanceDueDate pushes the next due date one billing period forward.
func (s *UserSubscription) AdvanceDueDate(plan *SubscriptionPlan) {
	s.NextDueDate = s.NextDueDate.Add(plan.Period())
}
