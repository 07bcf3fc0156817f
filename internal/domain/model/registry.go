package model

import (
	"time"

	"subscription-ledger/internal/domain"
)

// Registry is the singleton record holding system-wide counters and the
// administrative authority. Exactly one instance exists per deployment;
// it is created once and never destroyed.
type Registry struct {
	Authority          string
	TotalPlans         uint64
	TotalSubscriptions uint64
	IsPaused           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r *Registry) IsZero() bool { return r == nil || r.Authority == "" }

// NewRegistry validates and constructs the singleton registry record.
func NewRegistry(authority string, now time.Time) (*Registry, error) {
	if authority == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Registry{
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
