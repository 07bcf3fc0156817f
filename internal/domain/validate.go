package domain

import "time"

// Pure validation helpers shared by the use cases. Amounts are expressed in
// the smallest currency unit; periods in whole seconds.

// ValidatePrice checks a plan price.
func ValidatePrice(price int64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// ValidatePeriod checks a billing period length in seconds.
func ValidatePeriod(seconds int64) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// ValidateExpiry checks that an intent deadline lies strictly in the future.
func ValidateExpiry(expiresAt, now time.Time) error {
	if !expiresAt.After(now) {
		return ErrInvalidExpiry
	}
	return nil
}

// ValidateExactAmount enforces full, exact payment of the plan price.
// Partial payments and overpayments are both rejected.
func ValidateExactAmount(amount, price int64) error {
	if amount != price {
		return ErrInvalidPaymentAmount
	}
	return nil
}

// Expired reports whether a deadline has passed. The boundary itself counts
// as expired: a deadline of T is no longer payable at now == T.
func Expired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
