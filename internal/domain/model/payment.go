package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodManual  PaymentMethod = "manual"
	PaymentMethodAutoPay PaymentMethod = "autopay"
)

// PaymentRecord is one append-only entry in the payment history. Records are
// addressed by (payer, subscriptionRef, timestamp) and never mutated after
// creation. The ID is a ULID so history sorts by creation time.
type PaymentRecord struct {
	ID              string
	Payer           string
	SubscriptionRef string
	Amount          int64
	Status          PaymentStatus
	Method          PaymentMethod
	Timestamp       time.Time
}

func (p *PaymentRecord) IsZero() bool { return p == nil || p.ID == "" }

// NewPaymentRecord constructs a completed payment entry.
func NewPaymentRecord(payer, subscriptionRef string, amount int64, method PaymentMethod, now time.Time) *PaymentRecord {
	return &PaymentRecord{
		ID:              ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Payer:           payer,
		SubscriptionRef: subscriptionRef,
		Amount:          amount,
		Status:          PaymentStatusCompleted,
		Method:          method,
		Timestamp:       now,
	}
}
