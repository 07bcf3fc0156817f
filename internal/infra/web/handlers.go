package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/infra/logging"
	"subscription-ledger/internal/usecase"
)

// ---- request/response shapes ----

type errBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errResponse struct {
	Error errBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, kind string, status int, msg string) {
	writeJSON(w, status, errResponse{Error: errBody{Kind: kind, Message: msg}})
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind, status := errKind(err)
	writeError(w, kind, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "InvalidArgument", http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ---- registry ----

type registryInitRequest struct {
	Authority string `json:"authority"`
}

func (s *Server) handleRegistryInit(w http.ResponseWriter, r *http.Request) {
	var req registryInitRequest
	if !decode(w, r, &req) {
		return
	}
	authority := req.Authority
	if authority == "" {
		authority = logging.Caller(r.Context())
	}
	reg, err := s.registryUC.Initialize(r.Context(), authority)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

type setPausedRequest struct {
	Paused bool `json:"paused"`
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	var req setPausedRequest
	if !decode(w, r, &req) {
		return
	}
	reg, err := s.registryUC.SetPaused(r.Context(), logging.Caller(r.Context()), req.Paused)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (s *Server) handleRegistryGet(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registryUC.Get(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ---- plans ----

type planCreateRequest struct {
	PlanID         string `json:"plan_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PricePerPeriod int64  `json:"price_per_period"`
	PeriodSeconds  int64  `json:"period_seconds"`
	MaxSubscribers uint32 `json:"max_subscribers"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := s.planUC.Create(r.Context(), logging.Caller(r.Context()), usecase.CreateInput{
		PlanID:         req.PlanID,
		Name:           req.Name,
		Description:    req.Description,
		PricePerPeriod: req.PricePerPeriod,
		PeriodSeconds:  req.PeriodSeconds,
		MaxSubscribers: req.MaxSubscribers,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

type planUpdateRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PricePerPeriod *int64  `json:"price_per_period"`
	PeriodSeconds  *int64  `json:"period_seconds"`
	MaxSubscribers *uint32 `json:"max_subscribers"`
	IsActive       *bool   `json:"is_active"`
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	var req planUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := s.planUC.Update(r.Context(), logging.Caller(r.Context()), chi.URLParam(r, "planID"), model.PlanPatch{
		Name:           req.Name,
		Description:    req.Description,
		PricePerPeriod: req.PricePerPeriod,
		PeriodSeconds:  req.PeriodSeconds,
		MaxSubscribers: req.MaxSubscribers,
		IsActive:       req.IsActive,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// ---- intents ----

type intentCreateRequest struct {
	IntentID  string    `json:"intent_id"`
	PlanID    string    `json:"plan_id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleIntentCreate(w http.ResponseWriter, r *http.Request) {
	var req intentCreateRequest
	if !decode(w, r, &req) {
		return
	}
	intent, err := s.intentUC.Create(r.Context(), req.IntentID, req.PlanID, req.Amount, req.ExpiresAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

func (s *Server) handleIntentGet(w http.ResponseWriter, r *http.Request) {
	intent, err := s.intentUC.Get(r.Context(), chi.URLParam(r, "intentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

type intentFulfillRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

type intentFulfillResponse struct {
	Intent       *model.PaymentIntent    `json:"intent"`
	Subscription *model.UserSubscription `json:"subscription"`
}

func (s *Server) handleIntentFulfill(w http.ResponseWriter, r *http.Request) {
	var req intentFulfillRequest
	if !decode(w, r, &req) {
		return
	}
	intent, sub, err := s.intentUC.FulfillAndSubscribe(r.Context(),
		logging.Caller(r.Context()), chi.URLParam(r, "intentID"), req.SubscriptionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intentFulfillResponse{Intent: intent, Subscription: sub})
}

func (s *Server) handleIntentCancel(w http.ResponseWriter, r *http.Request) {
	intent, err := s.intentUC.Cancel(r.Context(), logging.Caller(r.Context()), chi.URLParam(r, "intentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// ---- subscriptions ----

type subscriptionCreateRequest struct {
	PlanID         string `json:"plan_id"`
	SubscriptionID string `json:"subscription_id"`
}

func (s *Server) handleSubscriptionCreate(w http.ResponseWriter, r *http.Request) {
	var req subscriptionCreateRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := s.subUC.CreateDirect(r.Context(), logging.Caller(r.Context()), req.PlanID, req.SubscriptionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	caller := logging.Caller(r.Context())
	sub, err := s.subUC.Get(r.Context(), caller, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subUC.ListByUser(r.Context(), logging.Caller(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request) {
	caller := logging.Caller(r.Context())
	sub, err := s.subUC.Cancel(r.Context(), caller, caller, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type processPaymentRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	caller := logging.Caller(r.Context())
	rec, err := s.subUC.ProcessPayment(r.Context(), caller, caller,
		chi.URLParam(r, "subscriptionID"), req.Amount, model.PaymentMethodManual)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.subUC.ListPayments(r.Context(), logging.Caller(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
