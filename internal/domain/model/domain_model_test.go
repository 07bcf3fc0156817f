//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"subscription-ledger/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- Registry ---

func TestNewRegistry(t *testing.T) {
	t.Run("should create a registry with zeroed counters", func(t *testing.T) {
		reg, err := NewRegistry("auth-1", testNow)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if reg.Authority != "auth-1" {
			t.Errorf("expected authority 'auth-1', but got %s", reg.Authority)
		}
		if reg.TotalPlans != 0 || reg.TotalSubscriptions != 0 {
			t.Errorf("expected zeroed counters, got (%d, %d)", reg.TotalPlans, reg.TotalSubscriptions)
		}
		if reg.IsPaused {
			t.Error("expected new registry to be unpaused")
		}
	})

	t.Run("should fail with empty authority", func(t *testing.T) {
		_, err := NewRegistry("", testNow)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, but got %v", err)
		}
	})
}

// --- SubscriptionPlan ---

func TestNewSubscriptionPlan(t *testing.T) {
	t.Run("should create an active plan with zero subscribers", func(t *testing.T) {
		plan, err := NewSubscriptionPlan("p1", "Basic", "desc", 500, 3600, 10, "auth-1", testNow)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !plan.IsActive {
			t.Error("expected new plan to be active")
		}
		if plan.CurrentSubscribers != 0 {
			t.Errorf("expected zero subscribers, got %d", plan.CurrentSubscribers)
		}
		if plan.Period() != time.Hour {
			t.Errorf("expected 1h period, got %s", plan.Period())
		}
	})

	t.Run("should fail with non-positive price", func(t *testing.T) {
		_, err := NewSubscriptionPlan("p1", "Basic", "", 0, 3600, 0, "auth-1", testNow)
		if !errors.Is(err, domain.ErrInvalidPrice) {
			t.Errorf("expected ErrInvalidPrice, but got %v", err)
		}
	})

	t.Run("should fail with non-positive period", func(t *testing.T) {
		_, err := NewSubscriptionPlan("p1", "Basic", "", 500, 0, 0, "auth-1", testNow)
		if !errors.Is(err, domain.ErrInvalidDuration) {
			t.Errorf("expected ErrInvalidDuration, but got %v", err)
		}
	})
}

func TestSubscriptionPlan_HasCapacity(t *testing.T) {
	t.Run("zero max means unlimited", func(t *testing.T) {
		plan := &SubscriptionPlan{MaxSubscribers: 0, CurrentSubscribers: 1 << 20}
		if !plan.HasCapacity() {
			t.Error("expected unlimited plan to always have capacity")
		}
	})

	t.Run("full plan has no capacity", func(t *testing.T) {
		plan := &SubscriptionPlan{MaxSubscribers: 2, CurrentSubscribers: 2}
		if plan.HasCapacity() {
			t.Error("expected full plan to report no capacity")
		}
	})
}

func TestSubscriptionPlan_Apply(t *testing.T) {
	plan, err := NewSubscriptionPlan("p1", "Basic", "desc", 500, 3600, 10, "auth-1", testNow)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}

	t.Run("should leave nil fields unchanged", func(t *testing.T) {
		name := "Renamed"
		if err := plan.Apply(PlanPatch{Name: &name}); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if plan.Name != "Renamed" {
			t.Errorf("name = %s", plan.Name)
		}
		if plan.PricePerPeriod != 500 || plan.PeriodSeconds != 3600 {
			t.Error("untouched fields changed")
		}
	})

	t.Run("should reject a cap below current enrollment", func(t *testing.T) {
		p, err := NewSubscriptionPlan("p2", "Busy", "", 500, 3600, 10, "auth-1", testNow)
		if err != nil {
			t.Fatalf("new plan: %v", err)
		}
		p.CurrentSubscribers = 5

		low := uint32(4)
		if err := p.Apply(PlanPatch{MaxSubscribers: &low}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, but got %v", err)
		}
		if p.MaxSubscribers != 10 {
			t.Errorf("max subscribers = %d, want 10 untouched", p.MaxSubscribers)
		}

		exact := uint32(5)
		if err := p.Apply(PlanPatch{MaxSubscribers: &exact}); err != nil {
			t.Fatalf("cap equal to enrollment: %v", err)
		}
		unlimited := uint32(0)
		if err := p.Apply(PlanPatch{MaxSubscribers: &unlimited}); err != nil {
			t.Fatalf("cap to unlimited: %v", err)
		}
	})

	t.Run("should reject invalid patched values without applying anything", func(t *testing.T) {
		bad := int64(-1)
		name := "Other"
		if err := plan.Apply(PlanPatch{Name: &name, PricePerPeriod: &bad}); !errors.Is(err, domain.ErrInvalidPrice) {
			t.Fatalf("expected ErrInvalidPrice, but got %v", err)
		}
		if plan.Name == "Other" {
			t.Error("patch partially applied after validation failure")
		}
	})
}

// --- PaymentIntent ---

func TestPaymentIntent_Lifecycle(t *testing.T) {
	expiresAt := testNow.Add(time.Hour)

	t.Run("should create in created status", func(t *testing.T) {
		intent, err := NewPaymentIntent("i1", "p1", 500, expiresAt, testNow)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if intent.Status != IntentStatusCreated {
			t.Errorf("status = %s", intent.Status)
		}
	})

	t.Run("should reject a deadline that is not in the future", func(t *testing.T) {
		_, err := NewPaymentIntent("i1", "p1", 500, testNow, testNow)
		if !errors.Is(err, domain.ErrInvalidExpiry) {
			t.Errorf("expected ErrInvalidExpiry, but got %v", err)
		}
	})

	t.Run("complete should record the payer exactly once", func(t *testing.T) {
		intent, _ := NewPaymentIntent("i1", "p1", 500, expiresAt, testNow)
		if err := intent.Complete("alice", testNow.Add(time.Minute)); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if intent.Payer != "alice" {
			t.Errorf("payer = %s", intent.Payer)
		}
		if err := intent.Complete("bob", testNow.Add(2*time.Minute)); !errors.Is(err, domain.ErrIntentNotCreated) {
			t.Errorf("expected ErrIntentNotCreated on second complete, but got %v", err)
		}
	})

	t.Run("complete at the deadline should fail", func(t *testing.T) {
		intent, _ := NewPaymentIntent("i1", "p1", 500, expiresAt, testNow)
		if err := intent.Complete("alice", expiresAt); !errors.Is(err, domain.ErrIntentExpired) {
			t.Errorf("expected ErrIntentExpired, but got %v", err)
		}
	})

	t.Run("complete one second before the deadline should succeed", func(t *testing.T) {
		intent, _ := NewPaymentIntent("i1", "p1", 500, expiresAt, testNow)
		if err := intent.Complete("alice", expiresAt.Add(-time.Second)); err != nil {
			t.Errorf("expected no error, but got %v", err)
		}
	})

	t.Run("terminal statuses cannot transition", func(t *testing.T) {
		intent, _ := NewPaymentIntent("i1", "p1", 500, expiresAt, testNow)
		if err := intent.Cancel(testNow); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := intent.Expire(testNow); !errors.Is(err, domain.ErrIntentNotCreated) {
			t.Errorf("expected ErrIntentNotCreated, but got %v", err)
		}
		if err := intent.Complete("alice", testNow); !errors.Is(err, domain.ErrIntentNotCreated) {
			t.Errorf("expected ErrIntentNotCreated, but got %v", err)
		}
	})
}

// --- UserSubscription ---

func TestUserSubscription(t *testing.T) {
	plan, err := NewSubscriptionPlan("p1", "Basic", "", 500, 3600, 0, "auth-1", testNow)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}

	t.Run("should start active with the first due date one period out", func(t *testing.T) {
		sub, err := NewUserSubscription("alice", "s1", plan, true, testNow)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !sub.IsActive || !sub.AutoPayEnabled {
			t.Error("expected active autopay subscription")
		}
		if !sub.NextDueDate.Equal(testNow.Add(time.Hour)) {
			t.Errorf("next due date = %v", sub.NextDueDate)
		}
	})

	t.Run("cancel should deactivate and disable autopay", func(t *testing.T) {
		sub, _ := NewUserSubscription("alice", "s1", plan, true, testNow)
		if err := sub.Cancel(); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if sub.IsActive || sub.AutoPayEnabled {
			t.Error("subscription still active or autopaying after cancel")
		}
		if err := sub.Cancel(); !errors.Is(err, domain.ErrAlreadyCancelled) {
			t.Errorf("expected ErrAlreadyCancelled, but got %v", err)
		}
	})

	t.Run("advance should move the due date one billing period", func(t *testing.T) {
		sub, _ := NewUserSubscription("alice", "s1", plan, false, testNow)
		sub.AdvanceDueDate(plan)
		if !sub.NextDueDate.Equal(testNow.Add(2 * time.Hour)) {
			t.Errorf("next due date = %v", sub.NextDueDate)
		}
	})
}

// --- PaymentRecord ---

func TestNewPaymentRecord(t *testing.T) {
	rec := NewPaymentRecord("alice", "s1", 500, PaymentMethodManual, testNow)
	if rec.ID == "" {
		t.Error("expected a generated record ID")
	}
	if rec.Status != PaymentStatusCompleted {
		t.Errorf("status = %s", rec.Status)
	}
	if !rec.Timestamp.Equal(testNow) {
		t.Errorf("timestamp = %v", rec.Timestamp)
	}

	later := NewPaymentRecord("alice", "s1", 500, PaymentMethodAutoPay, testNow.Add(time.Hour))
	if later.ID <= rec.ID {
		t.Error("expected record IDs to sort by creation time")
	}
}
