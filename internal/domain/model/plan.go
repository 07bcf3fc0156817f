package model

import (
	"time"

	"subscription-ledger/internal/domain"
)

// SubscriptionPlan represents a merchant-defined plan with a fixed billing
// period and a price in the smallest currency unit.
type SubscriptionPlan struct {
	ID                 string
	Name               string
	Description        string
	PricePerPeriod     int64
	PeriodSeconds      int64
	MaxSubscribers     uint32 // 0 = unlimited
	CurrentSubscribers uint32
	IsActive           bool
	Authority          string
	CreatedAt          time.Time
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// Period returns the billing period as a duration.
func (p *SubscriptionPlan) Period() time.Duration {
	return time.Duration(p.PeriodSeconds) * time.Second
}

// HasCapacity reports whether another subscriber fits under MaxSubscribers.
func (p *SubscriptionPlan) HasCapacity() bool {
	return p.MaxSubscribers == 0 || p.CurrentSubscribers < p.MaxSubscribers
}

// NewSubscriptionPlan validates and constructs a plan. New plans start
// active with zero subscribers.
func NewSubscriptionPlan(id, name, description string, pricePerPeriod, periodSeconds int64, maxSubscribers uint32, authority string, now time.Time) (*SubscriptionPlan, error) {
	if id == "" || name == "" || authority == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := domain.ValidatePrice(pricePerPeriod); err != nil {
		return nil, err
	}
	if err := domain.ValidatePeriod(periodSeconds); err != nil {
		return nil, err
	}
	return &SubscriptionPlan{
		ID:             id,
		Name:           name,
		Description:    description,
		PricePerPeriod: pricePerPeriod,
		PeriodSeconds:  periodSeconds,
		MaxSubscribers: maxSubscribers,
		IsActive:       true,
		Authority:      authority,
		CreatedAt:      now,
	}, nil
}

// PlanPatch carries optional plan updates; nil fields are left unchanged.
type PlanPatch struct {
	Name           *string
	Description    *string
	PricePerPeriod *int64
	PeriodSeconds  *int64
	MaxSubscribers *uint32
	IsActive       *bool
}

// Apply validates and applies the patch in place.
func (p *SubscriptionPlan) Apply(patch PlanPatch) error {
	if patch.PricePerPeriod != nil {
		if err := domain.ValidatePrice(*patch.PricePerPeriod); err != nil {
			return err
		}
	}
	if patch.PeriodSeconds != nil {
		if err := domain.ValidatePeriod(*patch.PeriodSeconds); err != nil {
			return err
		}
	}
	// A cap below current enrollment would leave the stored record
	// over-subscribed. Zero still means unlimited; closing enrollment
	// goes through IsActive.
	if patch.MaxSubscribers != nil && *patch.MaxSubscribers != 0 && *patch.MaxSubscribers < p.CurrentSubscribers {
		return domain.ErrInvalidArgument
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.PricePerPeriod != nil {
		p.PricePerPeriod = *patch.PricePerPeriod
	}
	if patch.PeriodSeconds != nil {
		p.PeriodSeconds = *patch.PeriodSeconds
	}
	if patch.MaxSubscribers != nil {
		p.MaxSubscribers = *patch.MaxSubscribers
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	return nil
}
