package web

import (
	"errors"
	"net/http"

	"subscription-ledger/internal/domain"
)

// errKind maps a domain error to its wire kind and HTTP status. Every
// failure surfaces verbatim so UI and automation can react to the specific
// condition (e.g. mint a fresh intent on IntentExpired).
func errKind(err error) (kind string, status int) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized", http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyInitialized):
		return "AlreadyInitialized", http.StatusConflict
	case errors.Is(err, domain.ErrRegistryNotFound):
		return "RegistryNotFound", http.StatusNotFound
	case errors.Is(err, domain.ErrSystemPaused):
		return "SystemPaused", http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPlanNotFound):
		return "PlanNotFound", http.StatusNotFound
	case errors.Is(err, domain.ErrPlanInactive):
		return "PlanInactive", http.StatusConflict
	case errors.Is(err, domain.ErrPlanFull):
		return "PlanFull", http.StatusConflict
	case errors.Is(err, domain.ErrPlanAlreadyExists):
		return "PlanAlreadyExists", http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPrice):
		return "InvalidPrice", http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidDuration):
		return "InvalidDuration", http.StatusBadRequest
	case errors.Is(err, domain.ErrIntentNotFound):
		return "IntentNotFound", http.StatusNotFound
	case errors.Is(err, domain.ErrIntentAlreadyExists):
		return "IntentAlreadyExists", http.StatusConflict
	case errors.Is(err, domain.ErrIntentNotCreated):
		return "IntentNotCreated", http.StatusConflict
	case errors.Is(err, domain.ErrIntentExpired):
		return "IntentExpired", http.StatusGone
	case errors.Is(err, domain.ErrInvalidPaymentAmount):
		return "InvalidPaymentAmount", http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidExpiry):
		return "InvalidExpiry", http.StatusBadRequest
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return "SubscriptionNotFound", http.StatusNotFound
	case errors.Is(err, domain.ErrSubscriptionAlreadyExists):
		return "SubscriptionAlreadyExists", http.StatusConflict
	case errors.Is(err, domain.ErrSubscriptionInactive):
		return "SubscriptionInactive", http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return "AlreadyCancelled", http.StatusConflict
	case errors.Is(err, domain.ErrAmountMismatch):
		return "AmountMismatch", http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidArgument):
		return "InvalidArgument", http.StatusBadRequest
	default:
		return "Internal", http.StatusInternalServerError
	}
}
